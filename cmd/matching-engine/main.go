package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/app/engine"
	eventstream "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/event-stream"
	orderreader "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/order-reader"
	orderbook "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/orderbook"
	snapshot "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/snapshot"
	tradepublisher "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/usecase/trade-publisher"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/config"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/logger"
	"github.com/UtsavShingala/REG-NMS-Matching-Engine/pkg/redis"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := redis.DefaultConfig()
	redisConfig.Addr = cfg.RedisConfig.Addr
	redisConfig.Username = cfg.RedisConfig.Username
	redisConfig.Password = cfg.RedisConfig.Password
	redisConfig.DB = cfg.RedisConfig.DB

	rclient := redis.NewClient(log, redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "connect_redis",
		})
		return
	}

	book := orderbook.NewOrderbook(cfg.Instrument)
	stream := eventstream.NewStream(cfg.EngineConfig.EventBuffer)
	oReader := orderreader.NewReader(cfg.KafkaConfig, log)
	snapshotStore := snapshot.NewSnapshotStore(rclient, cfg.Instrument, log)
	publisher := tradepublisher.NewPublisher(cfg.TradePublisherConfig, stream, log)

	engine := app.NewEngine(book, stream, oReader, snapshotStore, log, cfg)

	// the publisher attaches to the event stream before matching starts
	// so no disposition is ever missed
	go func() {
		if err := publisher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error(err, logger.Field{
				Key:   "action",
				Value: "run_trade_publisher",
			})
		}
	}()

	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "start_engine",
		})
		return
	}

	log.Info("Matching engine started successfully", logger.Field{
		Key:   "instrument",
		Value: cfg.Instrument,
	})

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.Field{
		Key:   "signal",
		Value: sig.String(),
	})

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "stop_engine",
		})
	}

	if err := publisher.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_trade_publisher",
		})
	}

	if err := rclient.Close(); err != nil {
		log.Error(err, logger.Field{
			Key:   "action",
			Value: "close_redis_client",
		})
	}

	log.Info("Matching engine shutdown complete")
}
