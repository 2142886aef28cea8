package tradepublisher

import (
	"context"

	eventsv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/events/v1"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/config"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/errors"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher drains the engine's event stream and publishes trades and
// book deltas to the outbound Kafka topic. It is the reference external
// collaborator attached to Subscribe(): a crash or slow broker here
// never reaches the matching loop.
type Publisher struct {
	kafkaWriter *kafka.Writer
	stream      eventsv1.Stream
	logger      *logger.Logger
}

// NewPublisher creates a Kafka publisher for matching events.
func NewPublisher(cfg config.TradePublisherConfig, stream eventsv1.Stream, log *logger.Logger) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Publisher{
		kafkaWriter: kafkaWriter,
		stream:      stream,
		logger:      log,
	}
}

// Run subscribes to the event stream and publishes until ctx is
// cancelled or the stream closes.
func (p *Publisher) Run(ctx context.Context) error {
	events, cancel := p.stream.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.publish(ctx, &event); err != nil {
				p.logger.Error(err,
					logger.Field{Key: "kind", Value: event.Kind},
					logger.Field{Key: "sequence", Value: event.Sequence},
				)
			}
		}
	}
}

// publish writes one event, keyed by instrument so a partitioned topic
// preserves per-instrument ordering.
func (p *Publisher) publish(ctx context.Context, event *eventsv1.Event) error {
	msg := kafka.Message{
		Key:   []byte(event.Instrument),
		Value: eventsv1.ToBytes(event),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		return errors.TracerFromError(err)
	}
	return nil
}

// Close releases the Kafka writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
