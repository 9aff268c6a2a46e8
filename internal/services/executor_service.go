package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/dca-executor/internal/constants"
	"github.com/rxtech-lab/dca-executor/internal/errors"
	"github.com/rxtech-lab/dca-executor/internal/models"
	"github.com/rxtech-lab/dca-executor/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Approvals are sized at five times the requested amount so repeated small
// trades do not pay for an approval transaction on every run. The multiplier
// is a bounded policy, never an unlimited approval.
const approvalAmountMultiplier = 5

// ExecutorService runs one swap job to a terminal state: either a confirmed
// swap with a persisted purchase record, or a typed error propagated to the
// scheduler. Retry policy belongs to the scheduler, never to this service.
type ExecutorService interface {
	ExecuteSwapJob(ctx context.Context, params models.SwapJobParams) error
	ExecuteOrderJob(ctx context.Context, params models.OrderJobParams) error
}

type executorService struct {
	chain               ChainService
	price               PriceService
	tool                ToolService
	purchases           PurchaseService
	validator           *validator.Validate
	rpcURL              string
	confirmationTimeout time.Duration

	// Serializes executions per wallet so concurrent jobs cannot race on
	// allowance or nonce state.
	walletMu    sync.Mutex
	walletLocks map[string]*sync.Mutex
}

// NewExecutorService creates a new ExecutorService
func NewExecutorService(chain ChainService, price PriceService, tool ToolService, purchases PurchaseService, rpcURL string, confirmationTimeout time.Duration) ExecutorService {
	return &executorService{
		chain:               chain,
		price:               price,
		tool:                tool,
		purchases:           purchases,
		validator:           validator.New(),
		rpcURL:              rpcURL,
		confirmationTimeout: confirmationTimeout,
		walletLocks:         make(map[string]*sync.Mutex),
	}
}

// ExecuteOrderJob derives the explicit swap parameters from a direction-based
// order and runs the same pipeline. Buys convert quantity into a USDC amount
// at the current price; sells swap the quantity of the token itself.
func (s *executorService) ExecuteOrderJob(ctx context.Context, params models.OrderJobParams) error {
	if err := s.validator.Struct(params); err != nil {
		return s.logFailure(params.WalletAddress, params.ScheduleID, fmt.Errorf("invalid order job params: %w", err))
	}

	swapParams := models.SwapJobParams{
		WalletAddress:     params.WalletAddress,
		Name:              params.Name,
		ScheduleID:        params.ScheduleID,
		VincentAppVersion: params.VincentAppVersion,
		CreatedAt:         params.CreatedAt,
	}

	// Direction is checked before any network I/O happens.
	switch params.Direction {
	case models.DirectionBuy:
		price, err := s.price.GetPriceUsd(ctx, params.TokenContractAddress)
		if err != nil {
			return s.logFailure(params.WalletAddress, params.ScheduleID, err)
		}
		swapParams.FromTokenContractAddress = constants.USDCAddress
		swapParams.ToTokenContractAddress = params.TokenContractAddress
		swapParams.PurchaseAmount = params.Quantity * price
	case models.DirectionSell:
		swapParams.FromTokenContractAddress = params.TokenContractAddress
		swapParams.ToTokenContractAddress = constants.USDCAddress
		swapParams.PurchaseAmount = math.Abs(params.Quantity)
	default:
		return s.logFailure(params.WalletAddress, params.ScheduleID,
			errors.Newf(errors.KindInvalidDirection, "invalid direction %d", params.Direction))
	}

	return s.ExecuteSwapJob(ctx, swapParams)
}

// ExecuteSwapJob runs the execution pipeline for one job:
// Validating -> (ApprovalPending ->) Swapping -> Recording -> Done.
// Any failure aborts the remainder, is logged once here and propagated typed;
// no partial purchase record is ever written.
func (s *executorService) ExecuteSwapJob(ctx context.Context, params models.SwapJobParams) error {
	if err := s.validator.Struct(params); err != nil {
		return s.logFailure(params.WalletAddress, params.ScheduleID, fmt.Errorf("invalid swap job params: %w", err))
	}

	lock := s.walletLock(params.WalletAddress)
	lock.Lock()
	defer lock.Unlock()

	if err := s.run(ctx, params); err != nil {
		return s.logFailure(params.WalletAddress, params.ScheduleID, err)
	}
	return nil
}

// fundsCheck is the transient snapshot gathered during validation. It is
// never persisted.
type fundsCheck struct {
	fromToken     models.TokenInfo
	toToken       models.TokenInfo
	fromBalance   *big.Int
	nativeBalance *big.Int
	allowance     *big.Int
	priceUsd      float64
}

func (s *executorService) run(ctx context.Context, params models.SwapJobParams) error {
	funds, err := s.validate(ctx, params)
	if err != nil {
		return err
	}

	requiredUnits, err := utils.ParseUnits(params.PurchaseAmount, funds.fromToken.Decimals)
	if err != nil {
		return fmt.Errorf("invalid purchase amount: %w", err)
	}

	if funds.nativeBalance.Sign() <= 0 {
		return errors.Newf(errors.KindInsufficientGas,
			"no native eth balance on account %s - fund this account with ETH to pay for gas", params.WalletAddress)
	}
	if funds.fromBalance.Cmp(requiredUnits) < 0 {
		return errors.Newf(errors.KindInsufficientFunds,
			"the %s balance for account %s is insufficient to complete the swap - have %s, need %s",
			params.FromTokenContractAddress, params.WalletAddress,
			utils.FormatUnits(funds.fromBalance, funds.fromToken.Decimals),
			utils.FormatAmount(params.PurchaseAmount, funds.fromToken.Decimals))
	}

	slog.Info("executing swap job",
		"wallet", params.WalletAddress,
		"fromToken", params.FromTokenContractAddress,
		"toToken", params.ToTokenContractAddress,
		"purchaseAmount", params.PurchaseAmount,
		"priceUsd", funds.priceUsd,
		"allowance", funds.allowance.String(),
		"fromBalance", funds.fromBalance.String(),
		"nativeBalance", funds.nativeBalance.String(),
	)

	approvalGasCost := new(big.Int)
	if funds.allowance.Cmp(requiredUnits) < 0 {
		approvalGasCost, err = s.addApproval(ctx, params, funds)
		if err != nil {
			return err
		}
	}

	swapTxHash, err := s.executeSwap(ctx, params, funds, approvalGasCost)
	if err != nil {
		return err
	}

	purchase := &models.PurchasedCoin{
		WalletAddress:  params.WalletAddress,
		CoinAddress:    params.ToTokenContractAddress,
		Name:           funds.toToken.Name,
		Symbol:         funds.toToken.Symbol,
		PurchaseAmount: params.PurchaseAmount,
		PurchasePrice:  funds.priceUsd,
		ScheduleID:     params.ScheduleID,
		TxHash:         swapTxHash,
		Success:        true,
	}
	if err := s.purchases.CreatePurchase(purchase); err != nil {
		// The swap is confirmed on chain at this point; surfacing the
		// persistence failure is all this pipeline can do.
		return errors.Wrap(errors.KindPersistence, "failed to record purchase after confirmed swap", err)
	}

	slog.Debug("created purchase record",
		"coinAddress", params.ToTokenContractAddress,
		"txHash", swapTxHash,
		"scheduleId", params.ScheduleID,
	)
	return nil
}

// validate gathers token metadata, balances, allowance and price in parallel.
func (s *executorService) validate(ctx context.Context, params models.SwapJobParams) (*fundsCheck, error) {
	funds := &fundsCheck{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		funds.fromToken, err = s.chain.GetTokenInfo(groupCtx, params.FromTokenContractAddress)
		return err
	})
	group.Go(func() (err error) {
		funds.toToken, err = s.chain.GetTokenInfo(groupCtx, params.ToTokenContractAddress)
		return err
	})
	group.Go(func() (err error) {
		funds.fromBalance, err = s.chain.GetTokenBalance(groupCtx, params.FromTokenContractAddress, params.WalletAddress)
		return err
	})
	group.Go(func() (err error) {
		funds.nativeBalance, err = s.chain.GetNativeBalance(groupCtx, params.WalletAddress)
		return err
	})
	group.Go(func() (err error) {
		funds.allowance, err = s.chain.GetAllowance(groupCtx, params.FromTokenContractAddress, params.WalletAddress, constants.UniswapV3RouterAddress)
		return err
	})
	group.Go(func() (err error) {
		// The stable leg has no entry in the price map, so always price the
		// traded token.
		tradedToken := params.FromTokenContractAddress
		if tradedToken == constants.USDCAddress {
			tradedToken = params.ToTokenContractAddress
		}
		funds.priceUsd, err = s.price.GetPriceUsd(groupCtx, tradedToken)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return funds, nil
}

// addApproval estimates, submits and confirms a spending approval sized at
// approvalAmountMultiplier times the requested amount. Returns the projected
// gas cost so the swap step can subtract it from the available balance.
func (s *executorService) addApproval(ctx context.Context, params models.SwapJobParams, funds *fundsCheck) (*big.Int, error) {
	approvalAmount := params.PurchaseAmount * approvalAmountMultiplier
	approvalAmountText := utils.FormatAmount(approvalAmount, funds.fromToken.Decimals)
	approvalUnits, err := utils.ParseUnits(approvalAmount, funds.fromToken.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid approval amount: %w", err)
	}

	estimate, err := s.chain.EstimateApprovalGas(ctx, params.FromTokenContractAddress, params.WalletAddress, constants.UniswapV3RouterAddress, approvalUnits)
	if err != nil {
		return nil, errors.Wrap(errors.KindApprovalExecution, "failed to estimate approval gas", err)
	}

	requiredGasCost := estimate.Cost()
	if funds.nativeBalance.Cmp(requiredGasCost) < 0 {
		return nil, errors.Newf(errors.KindInsufficientGas,
			"not enough ETH to pay for gas for token approval - balance is %s, needed %s",
			funds.nativeBalance.String(), requiredGasCost.String())
	}

	result, err := s.tool.ExecuteApproval(ctx, ToolParams{
		AmountIn:      approvalAmountText,
		ChainID:       constants.BaseChainID,
		PKPEthAddress: params.WalletAddress,
		RPCURL:        s.rpcURL,
		TokenIn:       params.FromTokenContractAddress,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindApprovalExecution, "approval tool invocation failed", err)
	}
	if !result.Success() || result.ApprovalTxHash == "" {
		return nil, errors.Newf(errors.KindApprovalExecution, "approval tool reported failure: %s", result.RawResponse)
	}

	slog.Info("approval submitted, waiting for confirmation", "txHash", result.ApprovalTxHash)

	receipt, err := s.chain.WaitForTransaction(ctx, result.ApprovalTxHash, s.confirmationTimeout)
	if err != nil {
		if errors.IsKind(err, errors.KindConfirmationTimeout) {
			return nil, err
		}
		return nil, errors.Wrap(errors.KindApprovalConfirmation, "failed waiting for approval confirmation", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, errors.Newf(errors.KindApprovalConfirmation, "approval transaction failed for hash: %s", result.ApprovalTxHash)
	}

	slog.Info("approval transaction confirmed", "txHash", result.ApprovalTxHash)
	return requiredGasCost, nil
}

// executeSwap estimates, submits and confirms the swap itself, accounting for
// gas already reserved by a preceding approval. Returns the confirmed hash.
func (s *executorService) executeSwap(ctx context.Context, params models.SwapJobParams, funds *fundsCheck, approvalGasCost *big.Int) (string, error) {
	estimate, err := s.chain.EstimateSwapGas(ctx)
	if err != nil {
		return "", errors.Wrap(errors.KindSwapExecution, "failed to estimate swap gas", err)
	}

	requiredGasCost := estimate.Cost()
	available := new(big.Int).Sub(funds.nativeBalance, approvalGasCost)
	if available.Cmp(requiredGasCost) < 0 {
		return "", errors.Newf(errors.KindInsufficientGas,
			"not enough ETH to pay for gas for swap - balance is %s, needed %s",
			funds.nativeBalance.String(), requiredGasCost.String())
	}

	result, err := s.tool.ExecuteSwap(ctx, ToolParams{
		AmountIn:      utils.FormatAmount(params.PurchaseAmount, funds.fromToken.Decimals),
		ChainID:       constants.BaseChainID,
		PKPEthAddress: params.WalletAddress,
		RPCURL:        s.rpcURL,
		TokenIn:       params.FromTokenContractAddress,
		TokenOut:      params.ToTokenContractAddress,
	})
	if err != nil {
		return "", errors.Wrap(errors.KindSwapExecution, "swap tool invocation failed", err)
	}
	if !result.Success() || result.SwapTxHash == "" {
		return "", errors.Newf(errors.KindSwapExecution, "swap tool reported failure: %s", result.RawResponse)
	}

	slog.Info("swap submitted, waiting for confirmation", "txHash", result.SwapTxHash)

	receipt, err := s.chain.WaitForTransaction(ctx, result.SwapTxHash, s.confirmationTimeout)
	if err != nil {
		if errors.IsKind(err, errors.KindConfirmationTimeout) {
			return "", err
		}
		return "", errors.Wrap(errors.KindSwapConfirmation, "failed waiting for swap confirmation", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", errors.Newf(errors.KindSwapConfirmation, "swap transaction failed for hash: %s", result.SwapTxHash)
	}

	slog.Info("swap transaction confirmed", "txHash", result.SwapTxHash)
	return result.SwapTxHash, nil
}

// logFailure logs the triggering error exactly once before it propagates to
// the scheduler, which records the failure silently on its side.
func (s *executorService) logFailure(wallet, scheduleID string, err error) error {
	slog.Error("swap job failed",
		"wallet", wallet,
		"scheduleId", scheduleID,
		"kind", string(errors.KindOf(err)),
		"error", err,
	)
	return err
}

func (s *executorService) walletLock(wallet string) *sync.Mutex {
	s.walletMu.Lock()
	defer s.walletMu.Unlock()
	lock, ok := s.walletLocks[wallet]
	if !ok {
		lock = &sync.Mutex{}
		s.walletLocks[wallet] = lock
	}
	return lock
}
