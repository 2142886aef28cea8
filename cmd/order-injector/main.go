package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	orderreaderv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/order-reader/v1"
	orderbookv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/orderbook/v1"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

// pickType draws an order type: mostly limit, the rest split across
// market, IOC and FOK so every matching path gets traffic.
func pickType(rng *rand.Rand) orderbookv1.OrderType {
	switch r := rng.Float64(); {
	case r < 0.60:
		return orderbookv1.OrderTypeLimit
	case r < 0.80:
		return orderbookv1.OrderTypeMarket
	case r < 0.90:
		return orderbookv1.OrderTypeIOC
	default:
		return orderbookv1.OrderTypeFOK
	}
}

// generatePayloads creates submissions around basePrice plus an
// occasional cancel of an earlier live order.
func generatePayloads(rng *rand.Rand, count int, instrument string, basePrice, priceSpread int64, cancelRate float64) []*orderreaderv1.OrderPayload {
	entropy := ulid.Monotonic(rng, 0)
	payloads := make([]*orderreaderv1.OrderPayload, 0, count)
	live := make([]string, 0, count)

	for i := 0; i < count; i++ {
		if cancelRate > 0 && len(live) > 0 && rng.Float64() < cancelRate {
			idx := rng.Intn(len(live))
			payloads = append(payloads, &orderreaderv1.OrderPayload{
				Action:     orderreaderv1.ActionCancel,
				OrderID:    live[idx],
				Instrument: instrument,
			})
			live = append(live[:idx], live[idx+1:]...)
			continue
		}

		orderType := pickType(rng)
		side := orderbookv1.SideBuy
		if rng.Float64() < 0.5 {
			side = orderbookv1.SideSell
		}

		// quantity between 1 and 1000 ticks
		quantity := int64(rng.Intn(1000) + 1)

		var price int64
		if orderType.Priced() {
			// buys skew below mid, sells above, so the book builds depth
			offset := rng.Int63n(priceSpread + 1)
			if side == orderbookv1.SideBuy {
				price = basePrice - offset
			} else {
				price = basePrice + offset
			}
			if price <= 0 {
				price = basePrice
			}
		}

		orderID := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
		payloads = append(payloads, &orderreaderv1.OrderPayload{
			Action:     orderreaderv1.ActionSubmit,
			OrderID:    orderID,
			UserID:     "user-" + orderID[len(orderID)-6:],
			Instrument: instrument,
			Type:       orderType,
			Side:       side,
			Quantity:   quantity,
			Price:      price,
		})

		if orderType == orderbookv1.OrderTypeLimit {
			live = append(live, orderID)
		}
	}

	return payloads
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		instrument  = flag.String("instrument", "BTC-USDT", "Instrument the payloads target")
		file        = flag.String("file", "", "JSON file with payloads (optional, generates payloads if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending payloads")
		count       = flag.Int("count", 1000, "Number of payloads to generate")
		basePrice   = flag.Int64("base-price", 39455, "Base price in ticks")
		priceSpread = flag.Int64("price-spread", 2000, "Price spread range in ticks")
		cancelRate  = flag.Float64("cancel-rate", 0.1, "Fraction of payloads that cancel an earlier order")
		seed        = flag.Int64("seed", 0, "RNG seed (0 uses current time)")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var payloads []*orderreaderv1.OrderPayload
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &payloads); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d payloads from file: %s", len(payloads), *file)
	} else {
		log.Printf("Generating %d payloads (seed %d)...", *count, *seed)
		payloads = generatePayloads(rng, *count, *instrument, *basePrice, *priceSpread, *cancelRate)
		log.Printf("Generated %d payloads", len(payloads))
	}

	log.Printf("Sending payloads to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between payloads: %v", *delay)

	for i, payload := range payloads {
		msg := kafka.Message{
			Key:   []byte(payload.Instrument),
			Value: orderreaderv1.ToBytes(payload),
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send payload %d (%s): %v", i+1, payload.OrderID, err)
			continue
		}

		if (i+1)%100 == 0 || i == len(payloads)-1 {
			if payload.Action == orderreaderv1.ActionCancel {
				log.Printf("Sent payload %d/%d: cancel %s", i+1, len(payloads), payload.OrderID)
			} else {
				log.Printf("Sent payload %d/%d: %s | %s %s | Qty: %d @ %d",
					i+1, len(payloads), payload.OrderID,
					payload.Type, payload.Side, payload.Quantity, payload.Price)
			}
		}

		if i < len(payloads)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d payloads!", len(payloads))

	var submits, cancels, buys, sells int
	for _, payload := range payloads {
		if payload.Action == orderreaderv1.ActionCancel {
			cancels++
			continue
		}
		submits++
		if payload.Side == orderbookv1.SideBuy {
			buys++
		} else {
			sells++
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Total Payloads: %d", len(payloads))
	log.Printf("Submissions: %d", submits)
	log.Printf("Cancels: %d", cancels)
	log.Printf("Buy Orders: %d", buys)
	log.Printf("Sell Orders: %d", sells)
}
