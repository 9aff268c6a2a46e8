package services

import (
	"github.com/rxtech-lab/dca-executor/internal/models"
	"gorm.io/gorm"
)

// PurchaseService persists purchase records. Records are write-once: there is
// deliberately no update or delete path.
type PurchaseService interface {
	CreatePurchase(purchase *models.PurchasedCoin) error
	GetPurchaseByTxHash(txHash string) (*models.PurchasedCoin, error)
	ListPurchasesByWallet(walletAddress string) ([]models.PurchasedCoin, error)
}

type purchaseService struct {
	db *gorm.DB
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(db *gorm.DB) PurchaseService {
	return &purchaseService{db: db}
}

// CreatePurchase inserts the record for one confirmed swap
func (s *purchaseService) CreatePurchase(purchase *models.PurchasedCoin) error {
	return s.db.Create(purchase).Error
}

// GetPurchaseByTxHash returns the purchase recorded for a transaction hash
func (s *purchaseService) GetPurchaseByTxHash(txHash string) (*models.PurchasedCoin, error) {
	var purchase models.PurchasedCoin
	err := s.db.Where("tx_hash = ?", txHash).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchasesByWallet returns all purchases recorded for a wallet
func (s *purchaseService) ListPurchasesByWallet(walletAddress string) ([]models.PurchasedCoin, error) {
	var purchases []models.PurchasedCoin
	err := s.db.Where("wallet_address = ?", walletAddress).Order("created_at desc").Find(&purchases).Error
	return purchases, err
}
