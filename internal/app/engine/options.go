package engine

import (
	"time"

	"github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/matching"
)

// Options represents configuration options for the Engine.
type Options struct {
	// IngressCapacity bounds the submit/cancel queue.
	IngressCapacity int
	// SnapshotInterval is how often the snapshot manager wakes up.
	SnapshotInterval time.Duration
	// SnapshotOrderDelta is the minimum number of processed requests
	// between snapshots.
	SnapshotOrderDelta int64
	// Clock stamps admission and trade timestamps. Overriding it makes
	// replays of the same submission stream byte-identical; nil uses
	// the wall clock.
	Clock matching.Clock
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		IngressCapacity:    4096,
		SnapshotInterval:   30 * time.Second,
		SnapshotOrderDelta: 1000,
	}
}
