package broker

import (
	"time"

	"github.com/dmitrymomot/relay/core/retry"
)

// Config holds bridge tuning for environment-based configuration using
// popular env parsing libraries.
type Config struct {
	StopCheckInterval time.Duration `env:"BROKER_STOP_CHECK_INTERVAL" envDefault:"1s"`
	ShutdownTimeout   time.Duration `env:"BROKER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Retry retry.Config `envPrefix:"BROKER_"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		StopCheckInterval: defaultStopCheckInterval,
		ShutdownTimeout:   defaultShutdownTimeout,
		Retry:             retry.DefaultConfig(),
	}
}

// NewBridgeFromConfig creates a bridge over the transport with tuning taken
// from the config. User-provided options override config values; zero config
// fields fall back to the bridge defaults.
func NewBridgeFromConfig(cfg Config, transport Transport, opts ...Option) (*Bridge, error) {
	allOpts := append([]Option{
		WithStopCheckInterval(cfg.StopCheckInterval),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithRetryPolicy(cfg.Retry.Policy()),
	}, opts...)

	return NewBridge(transport, allOpts...)
}
