package orderreaderv1

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// OrderReader defines the interface for reading order-entry requests
// from the inbound stream.
type OrderReader interface {
	// ReadMessage reads a message and returns it with the parsed payload.
	ReadMessage(ctx context.Context) (kafka.Message, *OrderPayload, error)
	// SetOffset sets the offset for the reader.
	SetOffset(offset int64) error
	// CommitMessages commits the messages after processing.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close closes the reader.
	Close() error
}
