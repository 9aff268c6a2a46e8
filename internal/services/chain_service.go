package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rxtech-lab/dca-executor/internal/errors"
	"github.com/rxtech-lab/dca-executor/internal/models"
	"github.com/rxtech-lab/dca-executor/internal/utils"
)

// Swaps are routed through Uniswap V3 by the external tool; the route is not
// known client-side, so swap gas is projected with a bounded unit ceiling
// instead of eth_estimateGas against unknown calldata.
const swapGasUnitCeiling = 500_000

const receiptPollInterval = 2 * time.Second

// EthBackend is the subset of the Ethereum RPC surface the executor reads.
// *ethclient.Client satisfies it; tests substitute a fake.
type EthBackend interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ChainService issues read-only queries against the Base chain: token
// metadata, balances, allowances, gas projections and receipt polling.
type ChainService interface {
	GetTokenInfo(ctx context.Context, tokenAddress string) (models.TokenInfo, error)
	GetNativeBalance(ctx context.Context, owner string) (*big.Int, error)
	GetTokenBalance(ctx context.Context, tokenAddress, owner string) (*big.Int, error)
	GetAllowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error)
	EstimateApprovalGas(ctx context.Context, tokenAddress, owner, spender string, amount *big.Int) (models.GasEstimate, error)
	EstimateSwapGas(ctx context.Context) (models.GasEstimate, error)
	WaitForTransaction(ctx context.Context, txHash string, timeout time.Duration) (*types.Receipt, error)
}

type chainService struct {
	backend EthBackend
}

// NewChainService creates a ChainService connected to the given RPC endpoint
func NewChainService(rpcURL string) (ChainService, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc: %w", err)
	}
	return &chainService{backend: client}, nil
}

// NewChainServiceWithBackend creates a ChainService over an existing backend
func NewChainServiceWithBackend(backend EthBackend) ChainService {
	return &chainService{backend: backend}
}

// GetTokenInfo reads name, symbol and decimals for an ERC-20 token. Metadata
// is re-read on every execution rather than cached.
func (s *chainService) GetTokenInfo(ctx context.Context, tokenAddress string) (models.TokenInfo, error) {
	token := common.HexToAddress(tokenAddress)

	code, err := s.backend.CodeAt(ctx, token, nil)
	if err != nil {
		return models.TokenInfo{}, fmt.Errorf("failed to read code at %s: %w", tokenAddress, err)
	}
	if len(code) == 0 {
		return models.TokenInfo{}, errors.Newf(errors.KindNoContract, "no contract code found at %s", tokenAddress)
	}

	name, err := s.callString(ctx, token, "name")
	if err != nil {
		return models.TokenInfo{}, err
	}
	symbol, err := s.callString(ctx, token, "symbol")
	if err != nil {
		return models.TokenInfo{}, err
	}
	decimals, err := s.callUint8(ctx, token, "decimals")
	if err != nil {
		return models.TokenInfo{}, err
	}

	return models.TokenInfo{
		Address:  token.Hex(),
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
	}, nil
}

// GetNativeBalance returns the wallet's ETH balance in wei
func (s *chainService) GetNativeBalance(ctx context.Context, owner string) (*big.Int, error) {
	balance, err := s.backend.BalanceAt(ctx, common.HexToAddress(owner), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read native balance of %s: %w", owner, err)
	}
	return balance, nil
}

// GetTokenBalance returns the wallet's ERC-20 balance in base units
func (s *chainService) GetTokenBalance(ctx context.Context, tokenAddress, owner string) (*big.Int, error) {
	return s.callBigInt(ctx, common.HexToAddress(tokenAddress), "balanceOf", common.HexToAddress(owner))
}

// GetAllowance returns the amount the owner has authorized the spender to move
func (s *chainService) GetAllowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error) {
	return s.callBigInt(ctx, common.HexToAddress(tokenAddress), "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

// EstimateApprovalGas projects the cost of an approve(spender, amount) call,
// priced at the current pending-block fee. Estimates are never reused across
// attempts.
func (s *chainService) EstimateApprovalGas(ctx context.Context, tokenAddress, owner, spender string, amount *big.Int) (models.GasEstimate, error) {
	data, err := utils.PackERC20Call("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return models.GasEstimate{}, err
	}

	token := common.HexToAddress(tokenAddress)
	units, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: common.HexToAddress(owner),
		To:   &token,
		Data: data,
	})
	if err != nil {
		return models.GasEstimate{}, fmt.Errorf("failed to estimate approval gas: %w", err)
	}

	maxFee, err := s.maxFeePerGas(ctx)
	if err != nil {
		return models.GasEstimate{}, err
	}

	return models.GasEstimate{
		EstimatedGas: new(big.Int).SetUint64(units),
		MaxFeePerGas: maxFee,
	}, nil
}

// EstimateSwapGas projects the cost of a routed swap at the current pending-
// block fee, using the bounded unit ceiling.
func (s *chainService) EstimateSwapGas(ctx context.Context) (models.GasEstimate, error) {
	maxFee, err := s.maxFeePerGas(ctx)
	if err != nil {
		return models.GasEstimate{}, err
	}
	return models.GasEstimate{
		EstimatedGas: big.NewInt(swapGasUnitCeiling),
		MaxFeePerGas: maxFee,
	}, nil
}

// WaitForTransaction polls for the receipt of a submitted transaction until
// it is mined or the timeout elapses.
func (s *chainService) WaitForTransaction(ctx context.Context, txHash string, timeout time.Duration) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && err != ethereum.NotFound && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to poll receipt for %s: %w", txHash, err)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Newf(errors.KindConfirmationTimeout, "transaction %s not confirmed within %s", txHash, timeout)
		case <-ticker.C:
		}
	}
}

// maxFeePerGas returns 2*baseFee + tip, the worst-case per-unit price the
// wallet may pay under EIP-1559.
func (s *chainService) maxFeePerGas(ctx context.Context) (*big.Int, error) {
	header, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest header: %w", err)
	}
	if header.BaseFee == nil {
		return nil, fmt.Errorf("chain does not report a base fee")
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggested tip: %w", err)
	}

	maxFee := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
	return maxFee.Add(maxFee, tip), nil
}

func (s *chainService) callString(ctx context.Context, token common.Address, method string) (string, error) {
	value, err := s.call(ctx, token, method)
	if err != nil {
		return "", err
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s return type %T", method, value)
	}
	return text, nil
}

func (s *chainService) callUint8(ctx context.Context, token common.Address, method string) (uint8, error) {
	value, err := s.call(ctx, token, method)
	if err != nil {
		return 0, err
	}
	number, ok := value.(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected %s return type %T", method, value)
	}
	return number, nil
}

func (s *chainService) callBigInt(ctx context.Context, token common.Address, method string, args ...any) (*big.Int, error) {
	value, err := s.call(ctx, token, method, args...)
	if err != nil {
		return nil, err
	}
	number, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s return type %T", method, value)
	}
	return number, nil
}

func (s *chainService) call(ctx context.Context, token common.Address, method string, args ...any) (any, error) {
	data, err := utils.PackERC20Call(method, args...)
	if err != nil {
		return nil, err
	}

	output, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, token.Hex(), err)
	}

	return utils.UnpackERC20Output(method, output)
}
