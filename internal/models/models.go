package models

import (
	"time"

	"gorm.io/gorm"
)

// PurchasedCoin is the durable record of one confirmed swap. It is created
// exactly once per successful execution and never mutated afterwards; failed,
// reverted, or unconfirmed swaps leave no row behind.
type PurchasedCoin struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	WalletAddress  string         `gorm:"not null;index" json:"wallet_address"`
	CoinAddress    string         `gorm:"not null" json:"coin_address"`
	Name           string         `gorm:"not null" json:"name"`
	Symbol         string         `gorm:"not null" json:"symbol"`
	PurchaseAmount float64        `gorm:"not null" json:"purchase_amount"`
	PurchasePrice  float64        `gorm:"not null" json:"purchase_price"`
	ScheduleID     string         `gorm:"index" json:"schedule_id"` // weak back-reference to the triggering job
	TxHash         string         `gorm:"not null;uniqueIndex" json:"tx_hash"`
	Success        bool           `gorm:"not null" json:"success"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
