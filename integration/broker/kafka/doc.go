// Package kafka provides a Kafka transport for the broker bridge,
// broadcasting events between processes over a shared topic.
//
// This package wraps segmentio/kafka-go. Each transport consumes with its
// own consumer group starting at the last offset, so every bridge
// instance observes every notification from the moment it joins
// (broadcast semantics over a partitioned log); the bridge's origin
// filter keeps each instance from re-delivering its own events. Earlier
// records stay in the log per the topic's retention but are never
// replayed into a fresh instance.
//
// Note that a partitioned topic does not preserve publish order across
// partitions. The bridge makes no ordering promises between events, so
// this is fine for notification fan-out; use a single-partition topic if
// ordering matters to your consumers anyway.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		Brokers        []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
//		Topic          string        `env:"RELAY_KAFKA_TOPIC" envDefault:"relay.events"`
//		GroupID        string        `env:"RELAY_KAFKA_GROUP_ID"`
//		BatchTimeout   time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms"`
//		WriteTimeout   time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"10s"`
//		MinBytes       int           `env:"KAFKA_MIN_BYTES" envDefault:"1"`
//		MaxBytes       int           `env:"KAFKA_MAX_BYTES" envDefault:"10485760"`
//		MaxWait        time.Duration `env:"KAFKA_MAX_WAIT" envDefault:"500ms"`
//		AllowAutoTopic bool          `env:"KAFKA_ALLOW_AUTO_TOPIC" envDefault:"true"`
//		RetryAttempts  int           `env:"KAFKA_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"KAFKA_RETRY_INTERVAL" envDefault:"5s"`
//	}
//
// GroupID is empty by default: each transport then generates its own
// group (relay-<uuid>), which is what gives every instance the full
// stream. Pinning a group makes restarts resume committed offsets, and
// sharing one group between instances splits the stream between them
// instead of broadcasting it.
//
// # Usage Example
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/dmitrymomot/relay/core/broker"
//		kafkatransport "github.com/dmitrymomot/relay/integration/broker/kafka"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		transport, err := kafkatransport.New([]string{"localhost:9092"})
//		if err != nil {
//			log.Fatal("failed to create transport:", err)
//		}
//		defer transport.Shutdown()
//
//		bridge, err := broker.NewBridge(transport)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := bridge.Start(ctx); err != nil {
//			log.Fatal("failed to start bridge:", err)
//		}
//		defer bridge.Stop()
//	}
//
// FromConfig additionally probes the brokers within the retry budget
// before returning:
//
//	transport, err := kafkatransport.FromConfig(ctx, cfg,
//		kafkatransport.WithTopic("myapp.events"),
//	)
//
// # Health Checking
//
// The package provides a health check function suitable for readiness and
// liveness probes:
//
//	healthCheck := kafkatransport.Healthcheck([]string{"localhost:9092"})
//
//	if err := healthCheck(ctx); err != nil {
//		// No broker reachable.
//	}
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrNoBrokers: no broker addresses were configured
//   - ErrKafkaNotReady: no broker answered within the connect budget
//   - ErrNotSubscribed: Receive was called before Subscribe
//   - ErrHealthcheckFailed: the health check dial failed
package kafka
