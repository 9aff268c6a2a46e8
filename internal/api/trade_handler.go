package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/dca-executor/internal/constants"
	"github.com/rxtech-lab/dca-executor/internal/models"
)

// Order statuses the webhook provider reports for actionable fills.
const (
	orderStatusPartiallyFilled = 2
	orderStatusFilled          = 3
)

// OrderEvent is one order notification from the webhook provider. Field
// names follow the provider's payload, not Go conventions.
type OrderEvent struct {
	OrderID   int     `json:"OrderId"`
	ID        int     `json:"Id"`
	Direction int     `json:"Direction"`
	Status    int     `json:"Status"`
	Quantity  float64 `json:"Quantity"`

	FillPrice         float64 `json:"FillPrice"`
	FillPriceCurrency string  `json:"FillPriceCurrency"`
	FillQuantity      float64 `json:"FillQuantity"`
	IsAssignment      bool    `json:"IsAssignment"`
	UtcTime           string  `json:"UtcTime"`

	Symbol struct {
		Value    string `json:"value"`
		ID       string `json:"id"`
		Permtick string `json:"permtick"`
	} `json:"Symbol"`
}

type tradeWebhookRequest struct {
	OrderEvents []OrderEvent `json:"OrderEvents"`
}

// handleTradeWebhook turns filled order events into dispatched jobs. The
// sender always gets an immediate success acknowledgment once the jobs are
// enqueued; execution failures surface only in the job store and logs.
func (s *APIServer) handleTradeWebhook(c *fiber.Ctx) error {
	var body tradeWebhookRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	slog.Debug("received trade webhook", "orderEvents", len(body.OrderEvents))

	for _, event := range body.OrderEvents {
		quantity := event.FillQuantity
		symbol := event.Symbol.Value

		if quantity == 0 {
			slog.Debug("skipping order with zero quantity", "orderId", event.OrderID, "symbol", symbol)
			continue
		}
		if event.Status != orderStatusPartiallyFilled && event.Status != orderStatusFilled {
			slog.Debug("skipping order with non-fill status", "orderId", event.OrderID, "symbol", symbol, "status", event.Status)
			continue
		}

		tokenAddress, ok := constants.TokenAddressBySymbol[symbol]
		if !ok {
			slog.Error("no contract address found for symbol", "orderId", event.OrderID, "symbol", symbol)
			continue
		}
		if event.Direction != models.DirectionBuy && event.Direction != models.DirectionSell {
			slog.Error("invalid direction for order", "orderId", event.OrderID, "direction", event.Direction)
			continue
		}

		scheduleID, err := s.dispatcher.DispatchOrderJob(models.OrderJobParams{
			WalletAddress:        s.walletAddress,
			TokenContractAddress: tokenAddress,
			Direction:            event.Direction,
			Quantity:             quantity,
			Name:                 symbol,
		})
		if err != nil {
			slog.Error("failed to dispatch order job", "orderId", event.OrderID, "error", err)
			continue
		}
		slog.Debug("dispatched order job", "orderId", event.OrderID, "scheduleId", scheduleID)
	}

	return c.JSON(fiber.Map{"success": true})
}
