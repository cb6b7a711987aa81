package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"emittr/connectfour/internal/analytics"
	"emittr/connectfour/internal/config"
)

func main() {
	config.LoadDotEnv()
	brokers := config.GetEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"})
	topic := config.GetEnv("KAFKA_TOPIC", config.DefaultKafkaTopic)
	group := config.GetEnv("KAFKA_GROUP", "analytics-consumer")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	defer reader.Close()

	log.Printf("analytics consumer listening on %v topic=%s", brokers, topic)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := analytics.NewMetrics()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.PrintStats()
			}
		}
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				metrics.PrintStats()
				return
			}
			log.Fatalf("read error: %v", err)
		}
		var e analytics.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			log.Printf("failed to unmarshal event: %v", err)
			continue
		}
		metrics.Record(e)

		log.Printf("event=%s gameId=%v winner=%v", e.Event,
			e.Payload["gameId"],
			e.Payload["winner"])
	}
}
