package orderbookv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelOrder(id string, remaining int64) *Order {
	return NewOrder(id, "user", "BTC-USD", SideSell, OrderTypeLimit, 10_000, remaining, 1)
}

// Test 1: Append preserves arrival order and tracks volume
func TestPriceLevel_Append(t *testing.T) {
	level := NewPriceLevel(10_000)

	require.NoError(t, level.Append(levelOrder("a", 5)))
	require.NoError(t, level.Append(levelOrder("b", 3)))

	assert.Equal(t, 2, level.OrderCount())
	assert.Equal(t, int64(8), level.TotalVolume)
	assert.Equal(t, "a", level.Head().ID)
}

// Test 2: Append rejects nil and price mismatch
func TestPriceLevel_Append_Invalid(t *testing.T) {
	level := NewPriceLevel(10_000)

	assert.ErrorIs(t, level.Append(nil), ErrNilOrder)

	wrong := NewOrder("w", "user", "BTC-USD", SideSell, OrderTypeLimit, 9_999, 5, 1)
	assert.ErrorIs(t, level.Append(wrong), ErrInvalidOrder)
}

// Test 3: PopHead walks the FIFO queue
func TestPriceLevel_PopHead(t *testing.T) {
	level := NewPriceLevel(10_000)
	require.NoError(t, level.Append(levelOrder("a", 5)))
	require.NoError(t, level.Append(levelOrder("b", 3)))

	assert.Equal(t, "a", level.PopHead().ID)
	assert.Equal(t, "b", level.PopHead().ID)
	assert.Nil(t, level.PopHead())
	assert.True(t, level.IsEmpty())
}

// Test 4: Remove from the middle of the queue
func TestPriceLevel_Remove(t *testing.T) {
	level := NewPriceLevel(10_000)
	require.NoError(t, level.Append(levelOrder("a", 5)))
	require.NoError(t, level.Append(levelOrder("b", 3)))
	require.NoError(t, level.Append(levelOrder("c", 2)))

	removed := level.Remove("b")
	require.NotNil(t, removed)
	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, int64(7), level.TotalVolume)
	assert.Equal(t, 2, level.OrderCount())

	assert.Nil(t, level.Remove("missing"))
}
