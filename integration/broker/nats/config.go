package nats

import "time"

// Config contains configuration for a NATS-backed event transport.
type Config struct {
	ConnectionURL  string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	Subject        string        `env:"RELAY_NATS_SUBJECT" envDefault:"relay.events"`
	ClientName     string        `env:"RELAY_NATS_CLIENT_NAME" envDefault:"relay"`
	ConnectTimeout time.Duration `env:"RELAY_NATS_CONNECT_TIMEOUT" envDefault:"5s"`
	ReconnectWait  time.Duration `env:"RELAY_NATS_RECONNECT_WAIT" envDefault:"2s"`
	MaxReconnects  int           `env:"RELAY_NATS_MAX_RECONNECTS" envDefault:"10"`
	RetryAttempts  int           `env:"RELAY_NATS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"RELAY_NATS_RETRY_INTERVAL" envDefault:"5s"`
}
