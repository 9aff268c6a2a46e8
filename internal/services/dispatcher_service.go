package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/dca-executor/internal/models"
)

// JobDispatcher is the boundary to the job scheduler. The ingress enqueues
// through it and replies to the webhook sender immediately; execution
// failures surface only in logs and the job store.
type JobDispatcher interface {
	DispatchOrderJob(params models.OrderJobParams) (string, error)
	DispatchSwapJob(params models.SwapJobParams) (string, error)
}

// immediateDispatcher runs each job right away on its own goroutine. A real
// deployment can swap in a persistent scheduler behind the same interface;
// retries and backoff live there, not here.
type immediateDispatcher struct {
	executor ExecutorService
}

// NewImmediateDispatcher creates a JobDispatcher that executes jobs immediately
func NewImmediateDispatcher(executor ExecutorService) JobDispatcher {
	return &immediateDispatcher{executor: executor}
}

func (d *immediateDispatcher) DispatchOrderJob(params models.OrderJobParams) (string, error) {
	params.ScheduleID = uuid.New().String()
	params.CreatedAt = time.Now()

	slog.Info("dispatching order job",
		"scheduleId", params.ScheduleID,
		"wallet", params.WalletAddress,
		"token", params.TokenContractAddress,
		"direction", params.Direction,
		"quantity", params.Quantity,
	)

	go func() {
		// The executor logs and classifies its own failures; an immediate
		// dispatcher has no job store to record them in.
		_ = d.executor.ExecuteOrderJob(context.Background(), params)
	}()

	return params.ScheduleID, nil
}

func (d *immediateDispatcher) DispatchSwapJob(params models.SwapJobParams) (string, error) {
	params.ScheduleID = uuid.New().String()
	params.CreatedAt = time.Now()

	slog.Info("dispatching swap job",
		"scheduleId", params.ScheduleID,
		"wallet", params.WalletAddress,
		"fromToken", params.FromTokenContractAddress,
		"toToken", params.ToTokenContractAddress,
		"purchaseAmount", params.PurchaseAmount,
	)

	go func() {
		_ = d.executor.ExecuteSwapJob(context.Background(), params)
	}()

	return params.ScheduleID, nil
}
