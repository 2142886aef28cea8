package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/snapshot/v1"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/redis"
)

// Store persists engine snapshots to Redis, one key per instrument.
// Durability of historical orders and trades stays with downstream
// consumers; the snapshot only exists to resume the resting book and
// sequence counters after a restart.
type Store struct {
	instrument  string
	logger      *logger.Logger
	redisclient redis.Client
}

// NewSnapshotStore creates a snapshot store for one instrument.
func NewSnapshotStore(redisclient redis.Client, instrument string, log *logger.Logger) *Store {
	return &Store{
		instrument:  instrument,
		logger:      log,
		redisclient: redisclient,
	}
}

func (s *Store) key() string {
	return fmt.Sprintf("matching:snapshot:%s", s.instrument)
}

// Store writes the snapshot, replacing any previous one.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	if err := s.redisclient.Set(ctx, s.key(), string(data), 0); err != nil {
		s.logger.Error(err, logger.Field{Key: "action", Value: "store_snapshot"})
		return err
	}

	s.logger.Debug("Snapshot stored",
		logger.Field{Key: "instrument", Value: s.instrument},
		logger.Field{Key: "orderOffset", Value: snapshot.OrderOffset},
		logger.Field{Key: "restingOrders", Value: len(snapshot.OrderBookSnapshot.Orders)},
	)
	return nil
}

// LoadStore reads the last snapshot, returning (nil, nil) when none
// exists yet.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key())
	if err != nil {
		s.logger.Error(err, logger.Field{Key: "action", Value: "load_snapshot"})
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

var _ snapshotv1.Store = (*Store)(nil)
