// Package nats provides a core NATS transport for the broker bridge,
// broadcasting events between processes over a shared subject.
//
// This package wraps the nats.go client. Every connected bridge receives
// every notification published to the subject (plain subject fan-out, no
// queue groups); the bridge's origin filter keeps each instance from
// re-delivering its own events. The client reconnects on its own within
// the configured budget and restores subscriptions afterwards, so short
// outages never reach the bridge at all, and what does surface is
// retryable until the connection is closed for good.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL  string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
//		Subject        string        `env:"RELAY_NATS_SUBJECT" envDefault:"relay.events"`
//		ClientName     string        `env:"RELAY_NATS_CLIENT_NAME" envDefault:"relay"`
//		ConnectTimeout time.Duration `env:"RELAY_NATS_CONNECT_TIMEOUT" envDefault:"5s"`
//		ReconnectWait  time.Duration `env:"RELAY_NATS_RECONNECT_WAIT" envDefault:"2s"`
//		MaxReconnects  int           `env:"RELAY_NATS_MAX_RECONNECTS" envDefault:"10"`
//		RetryAttempts  int           `env:"RELAY_NATS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"RELAY_NATS_RETRY_INTERVAL" envDefault:"5s"`
//	}
//
// A negative MaxReconnects lets the client reconnect forever.
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
//		natstransport "github.com/dmitrymomot/relay/integration/broker/nats"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		transport, err := natstransport.FromURL("nats://localhost:4222")
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
// An existing connection can be shared instead; the caller then keeps its
// lifecycle:
//
//	conn, err := nats.Connect("nats://localhost:4222")
//	if err != nil {
//		log.Fatal(err)
//	}
//	transport, err := natstransport.New(conn,
//		natstransport.WithSubject("myapp.events"),
//	)
//
// Connection events (async errors, disconnects, reconnects) are reported
// through the transport's logger when the connection is built by FromURL
// or FromConfig. Wire your own connection the same way with LogHandlers:
//
//	conn, err := natstransport.Connect(ctx, cfg, natstransport.LogHandlers(log)...)
//
// # Health Checking
//
// The package provides a health check function suitable for readiness and
// liveness probes:
//
//	healthCheck := natstransport.Healthcheck(conn)
//
//	if err := healthCheck(ctx); err != nil {
//		// NATS unreachable.
//	}
//
// # Error Handling
//
// The package defines domain-specific errors that can be checked using
// errors.Is():
//
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrNATSNotReady: the server did not answer within the connect budget
//   - ErrNilConn: a transport was constructed without a connection
//   - ErrNotSubscribed: Receive was called before Subscribe
//   - ErrHealthcheckFailed: the health check round trip failed
package nats
