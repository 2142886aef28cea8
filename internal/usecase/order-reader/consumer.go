package orderreader

import (
	"context"

	orderreaderv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/order-reader/v1"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/config"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Reader consumes order-entry requests from the inbound Kafka topic.
// The topic's partition ordering defines submission arrival order, so
// the engine reads from a single partition per instrument.
type Reader struct {
	kafkaReader *kafka.Reader
	logger      *logger.Logger
}

// NewReader creates a Kafka reader for the order topic. It returns an
// implementation of the OrderReader interface.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})

	return &Reader{
		kafkaReader: kafkaReader,
		logger:      log,
	}
}

func (r *Reader) logError(err error, operation string) {
	r.logger.Error(err,
		logger.Field{Key: "operation", Value: operation},
	)
}

// SetOffset sets the offset for the Kafka reader.
func (r *Reader) SetOffset(offset int64) error {
	if err := r.kafkaReader.SetOffset(offset); err != nil {
		r.logError(err, "SetOffset")
		return err
	}
	return nil
}

// ReadMessage reads one message and parses it as an order payload.
func (r *Reader) ReadMessage(ctx context.Context) (kafka.Message, *orderreaderv1.OrderPayload, error) {
	msg, err := r.kafkaReader.ReadMessage(ctx)
	if err != nil {
		r.logError(err, "ReadMessage")
		return kafka.Message{}, nil, err
	}

	payload, err := orderreaderv1.FromBytes(msg.Value)
	if err != nil {
		r.logError(err, "UnmarshalOrder")
		return kafka.Message{}, nil, err
	}

	r.logger.Debug("ReadMessage",
		logger.Field{Key: "action", Value: payload.Action},
		logger.Field{Key: "orderID", Value: payload.OrderID},
		logger.Field{Key: "type", Value: payload.Type},
		logger.Field{Key: "side", Value: payload.Side},
		logger.Field{Key: "quantity", Value: payload.Quantity},
		logger.Field{Key: "price", Value: payload.Price},
	)

	payload.Offset = msg.Offset
	return msg, payload, nil
}

// CommitMessages commits the messages after processing.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(err, "CommitMessages")
		return err
	}
	return nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(err, "Close")
		return err
	}
	return nil
}

var _ orderreaderv1.OrderReader = (*Reader)(nil)
