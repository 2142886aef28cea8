package snapshot

import (
	"context"
	"testing"
	"time"

	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/snapshot/v1"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps values in memory, mirroring the Get contract of the
// real client: a missing key reads back as an empty string.
type fakeRedis struct {
	values map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Connect(_ context.Context) error { return nil }

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func newTestStore(t *testing.T) (*Store, *fakeRedis) {
	t.Helper()

	log, err := logger.NewLogger()
	require.NoError(t, err)

	redis := newFakeRedis()
	return NewSnapshotStore(redis, "BTC-USD", log), redis
}

// Test 1: Round trip through the store
func TestStore_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	snapshot := &snapshotv1.Snapshot{
		Instrument:  "BTC-USD",
		OrderOffset: 42,
		OrderBookSnapshot: snapshotv1.OrderBookSnapshot{
			Orders: []snapshotv1.BookOrder{
				{
					OrderID:   "order1",
					UserID:    "user1",
					Side:      orderbookv1.SideBuy,
					Price:     10_000,
					Quantity:  10,
					Remaining: 4,
					Sequence:  7,
					Timestamp: 1_700_000_000,
				},
			},
			OrderSequence: 7,
			TradeSequence: 3,
			EventSequence: 12,
		},
	}

	require.NoError(t, store.Store(ctx, snapshot))

	loaded, err := store.LoadStore(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snapshot, loaded)
}

// Test 2: Loading before any snapshot exists returns nil, not an error
func TestStore_LoadEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.LoadStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

// Test 3: Storing again replaces the previous snapshot
func TestStore_Replace(t *testing.T) {
	store, redis := newTestStore(t)
	ctx := context.Background()

	first := &snapshotv1.Snapshot{Instrument: "BTC-USD", OrderOffset: 1}
	second := &snapshotv1.Snapshot{Instrument: "BTC-USD", OrderOffset: 2}

	require.NoError(t, store.Store(ctx, first))
	require.NoError(t, store.Store(ctx, second))
	assert.Len(t, redis.values, 1)

	loaded, err := store.LoadStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.OrderOffset)
}

// Test 4: Nil snapshots are refused
func TestStore_NilSnapshot(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Error(t, store.Store(context.Background(), nil))
}
