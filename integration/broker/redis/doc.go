// Package redis provides a Redis Pub/Sub transport for the broker bridge,
// broadcasting events between processes over a shared channel.
//
// This package wraps the go-redis client. Every connected bridge receives
// every notification published to the channel (classic fan-out pub/sub);
// the bridge's origin filter keeps each instance from re-delivering its
// own events. go-redis re-establishes dropped Pub/Sub connections and
// re-subscribes automatically, so transient network failures surface as
// retryable receive errors and the bridge's retry policy doubles as the
// reconnect loop.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//		Channel        string        `env:"RELAY_REDIS_CHANNEL" envDefault:"relay:events"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
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
//		redistransport "github.com/dmitrymomot/relay/integration/broker/redis"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		transport, err := redistransport.FromURL("redis://localhost:6379/0")
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
// An existing client can be shared instead; the caller then keeps its
// lifecycle:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	transport, err := redistransport.New(client,
//		redistransport.WithChannel("myapp:events"),
//	)
//
// # Health Checking
//
// The package provides a health check function suitable for readiness and
// liveness probes:
//
//	client, err := redistransport.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	healthCheck := redistransport.Healthcheck(client)
//
//	if err := healthCheck(ctx); err != nil {
//		// Redis unreachable.
//	}
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrFailedToParseRedisConnString: the connection URL is malformed
//   - ErrRedisNotReady: Redis did not answer pings within the connect budget
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrHealthcheckFailed: the health check ping failed
//   - ErrNilClient: a transport was constructed without a client
//   - ErrNotSubscribed: Receive was called before Subscribe
package redis
