package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/dca-executor/internal/utils"
)

// handleListPurchases returns the purchase records for a wallet
func (s *APIServer) handleListPurchases(c *fiber.Ctx) error {
	wallet := c.Params("wallet")
	if !utils.IsValidEthereumAddress(wallet) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid wallet address",
		})
	}

	purchases, err := s.purchases.ListPurchasesByWallet(wallet)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load purchases",
		})
	}

	return c.JSON(fiber.Map{"purchases": purchases})
}
