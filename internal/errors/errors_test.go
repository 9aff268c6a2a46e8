package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/rxtech-lab/dca-executor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := errors.Wrap(errors.KindPriceFetch, "price request failed", cause)

	assert.Equal(t, "price request failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorWithoutCause(t *testing.T) {
	err := errors.New(errors.KindInsufficientFunds, "balance too low")
	assert.Equal(t, "balance too low", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := errors.Newf(errors.KindConfirmationTimeout, "transaction %s not confirmed", "0xabc")
	outer := fmt.Errorf("approval stage: %w", inner)

	typed, ok := errors.As(outer)
	require.True(t, ok)
	assert.Equal(t, errors.KindConfirmationTimeout, typed.Kind)
	assert.True(t, errors.IsKind(outer, errors.KindConfirmationTimeout))
	assert.Equal(t, errors.KindConfirmationTimeout, errors.KindOf(outer))
}

func TestUntypedErrorsHaveNoKind(t *testing.T) {
	err := stderrors.New("plain failure")

	_, ok := errors.As(err)
	assert.False(t, ok)
	assert.False(t, errors.IsKind(err, errors.KindPriceFetch))
	assert.Equal(t, errors.Kind(""), errors.KindOf(err))
}

func TestIsKindDistinguishesKinds(t *testing.T) {
	err := errors.New(errors.KindSwapExecution, "tool rejected swap")

	assert.True(t, errors.IsKind(err, errors.KindSwapExecution))
	assert.False(t, errors.IsKind(err, errors.KindSwapConfirmation))
}
