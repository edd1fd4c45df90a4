package menu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	wrapped := WrapError("Process", ErrNoDishesFound, "extraction returned nothing")

	var perr *PipelineError
	require.ErrorAs(t, wrapped, &perr)
	assert.Equal(t, "Process", perr.Op)
	assert.ErrorIs(t, wrapped, ErrNoDishesFound)
	assert.Contains(t, wrapped.Error(), "extraction returned nothing")
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError("Process", nil, "details"))
}

func TestWrapErrorNoDoubleWrap(t *testing.T) {
	inner := WrapError("ExtractDishes", ErrExtractionFailed, "")
	outer := WrapError("Process", inner, "outer details")

	assert.Equal(t, inner, outer, "an already wrapped error passes through")
}

func TestPipelineErrorMessageWithoutDetails(t *testing.T) {
	err := WrapError("Cancel", ErrCancelled, "")

	assert.Contains(t, err.Error(), "Cancel failed")
	assert.True(t, errors.Is(err, ErrCancelled))
}
