package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/dca-executor/internal/models"
	"github.com/rxtech-lab/dca-executor/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecutor struct {
	mu        sync.Mutex
	orderJobs []models.OrderJobParams
	swapJobs  []models.SwapJobParams
	executed  chan struct{}
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{executed: make(chan struct{}, 8)}
}

func (e *recordingExecutor) ExecuteOrderJob(ctx context.Context, params models.OrderJobParams) error {
	e.mu.Lock()
	e.orderJobs = append(e.orderJobs, params)
	e.mu.Unlock()
	e.executed <- struct{}{}
	return nil
}

func (e *recordingExecutor) ExecuteSwapJob(ctx context.Context, params models.SwapJobParams) error {
	e.mu.Lock()
	e.swapJobs = append(e.swapJobs, params)
	e.mu.Unlock()
	e.executed <- struct{}{}
	return nil
}

func waitExecuted(t *testing.T, executor *recordingExecutor) {
	t.Helper()
	select {
	case <-executor.executed:
	case <-time.After(time.Second):
		t.Fatal("job was never executed")
	}
}

func TestDispatchOrderJobAssignsScheduleIDAndRunsJob(t *testing.T) {
	executor := newRecordingExecutor()
	dispatcher := services.NewImmediateDispatcher(executor)

	scheduleID, err := dispatcher.DispatchOrderJob(models.OrderJobParams{
		WalletAddress:        testWallet,
		TokenContractAddress: testToken,
		Direction:            models.DirectionBuy,
		Quantity:             10,
	})

	require.NoError(t, err)
	_, parseErr := uuid.Parse(scheduleID)
	assert.NoError(t, parseErr)

	waitExecuted(t, executor)
	executor.mu.Lock()
	defer executor.mu.Unlock()
	require.Len(t, executor.orderJobs, 1)
	assert.Equal(t, scheduleID, executor.orderJobs[0].ScheduleID)
	assert.False(t, executor.orderJobs[0].CreatedAt.IsZero())
}

func TestDispatchSwapJobAssignsScheduleIDAndRunsJob(t *testing.T) {
	executor := newRecordingExecutor()
	dispatcher := services.NewImmediateDispatcher(executor)

	scheduleID, err := dispatcher.DispatchSwapJob(models.SwapJobParams{
		WalletAddress:            testWallet,
		FromTokenContractAddress: testToken,
		ToTokenContractAddress:   testToken,
		PurchaseAmount:           25,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, scheduleID)

	waitExecuted(t, executor)
	executor.mu.Lock()
	defer executor.mu.Unlock()
	require.Len(t, executor.swapJobs, 1)
	assert.Equal(t, scheduleID, executor.swapJobs[0].ScheduleID)
}

func TestDispatchMintsDistinctScheduleIDs(t *testing.T) {
	executor := newRecordingExecutor()
	dispatcher := services.NewImmediateDispatcher(executor)

	first, err := dispatcher.DispatchOrderJob(models.OrderJobParams{Quantity: 1})
	require.NoError(t, err)
	second, err := dispatcher.DispatchOrderJob(models.OrderJobParams{Quantity: 1})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	waitExecuted(t, executor)
	waitExecuted(t, executor)
}
