package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // a missing .env file is not an error in production

	return env.Parse(cfg)
}

// Config holds the configuration for the matching engine process.
type Config struct {
	// Instrument is the single instrument this engine instance owns, e.g. BTC-USD.
	Instrument string `env:"INSTRUMENT,required"`

	EngineConfig         `envPrefix:"ENGINE_"`
	KafkaConfig          `envPrefix:"KAFKA_"`
	TradePublisherConfig `envPrefix:"TRADES_"`
	RedisConfig          `envPrefix:"REDIS_"`
}

// EngineConfig holds tunables for the per-instrument matching loop.
type EngineConfig struct {
	// IngressCapacity bounds the submit/cancel queue; a full queue surfaces
	// backpressure to callers instead of dropping requests.
	IngressCapacity int `env:"INGRESS_CAPACITY" envDefault:"4096"`
	// EventBuffer is the per-subscriber buffer of the outbound event stream.
	EventBuffer int `env:"EVENT_BUFFER" envDefault:"8192"`
	// SnapshotIntervalSeconds is how often the snapshot manager wakes up.
	SnapshotIntervalSeconds int `env:"SNAPSHOT_INTERVAL_SECONDS" envDefault:"30"`
	// SnapshotOrderDelta is the minimum number of processed orders between snapshots.
	SnapshotOrderDelta int64 `env:"SNAPSHOT_ORDER_DELTA" envDefault:"1000"`
}

// KafkaConfig holds the configuration for the order-entry consumer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"default_group"`
	Brokers []string `env:"BROKER,required"`
}

// TradePublisherConfig holds the configuration for the outbound trade/book-delta publisher.
type TradePublisherConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for the snapshot store client.
type RedisConfig struct {
	Addr     string `env:"ADDRESS,required"`
	Password string `env:"PASSWORD" envDefault:""`
	Username string `env:"USERNAME" envDefault:""`
	DB       int    `env:"DB" envDefault:"0"`
}
