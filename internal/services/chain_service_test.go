package services_test

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rxtech-lab/dca-executor/internal/errors"
	"github.com/rxtech-lab/dca-executor/internal/services"
	"github.com/rxtech-lab/dca-executor/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEthBackend answers ERC-20 calls with ABI-encoded fixture values and
// serves canned balances, fees and receipts.
type fakeEthBackend struct {
	code          []byte
	name          string
	symbol        string
	decimals      uint8
	balanceOf     *big.Int
	allowance     *big.Int
	nativeBalance *big.Int
	gasUnits      uint64
	baseFee       *big.Int
	tipCap        *big.Int

	receipts     map[common.Hash]*types.Receipt
	receiptPolls int
}

func newFakeEthBackend() *fakeEthBackend {
	return &fakeEthBackend{
		code:          []byte{0x60, 0x80},
		name:          "Aerodrome",
		symbol:        "AERO",
		decimals:      18,
		balanceOf:     big.NewInt(1_000_000),
		allowance:     big.NewInt(0),
		nativeBalance: big.NewInt(2_000_000),
		gasUnits:      50_000,
		baseFee:       big.NewInt(40),
		tipCap:        big.NewInt(20),
		receipts:      make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeEthBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return f.code, nil
}

func (f *fakeEthBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	for methodName, method := range utils.ERC20ABI.Methods {
		if !bytes.HasPrefix(msg.Data, method.ID) {
			continue
		}
		switch methodName {
		case "name":
			return method.Outputs.Pack(f.name)
		case "symbol":
			return method.Outputs.Pack(f.symbol)
		case "decimals":
			return method.Outputs.Pack(f.decimals)
		case "balanceOf":
			return method.Outputs.Pack(f.balanceOf)
		case "allowance":
			return method.Outputs.Pack(f.allowance)
		}
	}
	return nil, ethereum.NotFound
}

func (f *fakeEthBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.nativeBalance, nil
}

func (f *fakeEthBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return f.gasUnits, nil
}

func (f *fakeEthBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return f.tipCap, nil
}

func (f *fakeEthBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee}, nil
}

func (f *fakeEthBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.receiptPolls++
	receipt, ok := f.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func TestGetTokenInfoReadsERC20Metadata(t *testing.T) {
	backend := newFakeEthBackend()
	chain := services.NewChainServiceWithBackend(backend)

	info, err := chain.GetTokenInfo(context.Background(), testToken)

	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testToken).Hex(), info.Address)
	assert.Equal(t, "Aerodrome", info.Name)
	assert.Equal(t, "AERO", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
}

func TestGetTokenInfoNoContractCode(t *testing.T) {
	backend := newFakeEthBackend()
	backend.code = nil
	chain := services.NewChainServiceWithBackend(backend)

	_, err := chain.GetTokenInfo(context.Background(), testToken)

	require.Error(t, err)
	assert.Equal(t, errors.KindNoContract, errors.KindOf(err))
}

func TestGetTokenBalanceDecodesBigInt(t *testing.T) {
	backend := newFakeEthBackend()
	backend.balanceOf = big.NewInt(123_456)
	chain := services.NewChainServiceWithBackend(backend)

	balance, err := chain.GetTokenBalance(context.Background(), testToken, testWallet)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(123_456), balance)
}

func TestGetAllowanceDecodesBigInt(t *testing.T) {
	backend := newFakeEthBackend()
	backend.allowance = big.NewInt(42)
	chain := services.NewChainServiceWithBackend(backend)

	allowance, err := chain.GetAllowance(context.Background(), testToken, testWallet, testToken)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), allowance)
}

func TestEstimateApprovalGasPricesAtDoubleBaseFeePlusTip(t *testing.T) {
	backend := newFakeEthBackend()
	chain := services.NewChainServiceWithBackend(backend)

	estimate, err := chain.EstimateApprovalGas(context.Background(), testToken, testWallet, testToken, big.NewInt(1))

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50_000), estimate.EstimatedGas)
	// 2*40 + 20
	assert.Equal(t, big.NewInt(100), estimate.MaxFeePerGas)
	assert.Equal(t, big.NewInt(5_000_000), estimate.Cost())
}

func TestEstimateSwapGasUsesUnitCeiling(t *testing.T) {
	backend := newFakeEthBackend()
	chain := services.NewChainServiceWithBackend(backend)

	estimate, err := chain.EstimateSwapGas(context.Background())

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_000), estimate.EstimatedGas)
	assert.Equal(t, big.NewInt(100), estimate.MaxFeePerGas)
}

func TestWaitForTransactionReturnsMinedReceipt(t *testing.T) {
	backend := newFakeEthBackend()
	hash := common.HexToHash("0xabc")
	backend.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful}
	chain := services.NewChainServiceWithBackend(backend)

	receipt, err := chain.WaitForTransaction(context.Background(), hash.Hex(), time.Second)

	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, 1, backend.receiptPolls)
}

func TestWaitForTransactionTimesOutWhenNeverMined(t *testing.T) {
	backend := newFakeEthBackend()
	chain := services.NewChainServiceWithBackend(backend)

	_, err := chain.WaitForTransaction(context.Background(), "0xdead", 50*time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, errors.KindConfirmationTimeout, errors.KindOf(err))
}
