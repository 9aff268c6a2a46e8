package models_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/dca-executor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapJobParamsJSONRoundTrip(t *testing.T) {
	original := models.SwapJobParams{
		WalletAddress:            "0xE505ed7D2EEe0cadF386866F05809dF3d5d01687",
		FromTokenContractAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		ToTokenContractAddress:   "0x940181a94A35A4569E4529A3CDfB74e38FD98631",
		PurchaseAmount:           25,
		Name:                     "Aerodrome",
		ScheduleID:               "schedule-1",
		VincentAppVersion:        11,
	}

	payload, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded models.SwapJobParams
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, original, decoded)
}

func TestSwapJobParamsValidation(t *testing.T) {
	validate := validator.New()

	valid := models.SwapJobParams{
		WalletAddress:            "0xE505ed7D2EEe0cadF386866F05809dF3d5d01687",
		FromTokenContractAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		ToTokenContractAddress:   "0x940181a94A35A4569E4529A3CDfB74e38FD98631",
		PurchaseAmount:           25,
		VincentAppVersion:        11,
	}
	assert.NoError(t, validate.Struct(valid))

	badAddress := valid
	badAddress.WalletAddress = "0x123"
	assert.Error(t, validate.Struct(badAddress))

	zeroAmount := valid
	zeroAmount.PurchaseAmount = 0
	assert.Error(t, validate.Struct(zeroAmount))

	negativeAmount := valid
	negativeAmount.PurchaseAmount = -1
	assert.Error(t, validate.Struct(negativeAmount))
}

func TestOrderJobParamsValidation(t *testing.T) {
	validate := validator.New()

	valid := models.OrderJobParams{
		WalletAddress:        "0xE505ed7D2EEe0cadF386866F05809dF3d5d01687",
		TokenContractAddress: "0x940181a94A35A4569E4529A3CDfB74e38FD98631",
		Direction:            models.DirectionSell,
		Quantity:             -10,
		VincentAppVersion:    11,
	}
	// sells arrive with negative quantities, only zero is invalid
	assert.NoError(t, validate.Struct(valid))

	zeroQuantity := valid
	zeroQuantity.Quantity = 0
	assert.Error(t, validate.Struct(zeroQuantity))

	badToken := valid
	badToken.TokenContractAddress = "not-an-address"
	assert.Error(t, validate.Struct(badToken))
}

func TestGasEstimateCost(t *testing.T) {
	estimate := models.GasEstimate{
		EstimatedGas: big.NewInt(50_000),
		MaxFeePerGas: big.NewInt(100),
	}
	assert.Equal(t, big.NewInt(5_000_000), estimate.Cost())

	assert.Equal(t, int64(0), models.GasEstimate{}.Cost().Int64())
}
