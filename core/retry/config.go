package retry

import "time"

// Config holds retry tuning for environment-based configuration using
// popular env parsing libraries. Broker configs embed it so every bridge
// exposes the same retry knobs under its own prefix.
type Config struct {
	MaxAttempts     int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"0"`
	MaxElapsedTime  time.Duration `env:"RETRY_MAX_ELAPSED_TIME" envDefault:"1m"`
	InitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"500ms"`
	MaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL" envDefault:"20s"`
	Multiplier      float64       `env:"RETRY_MULTIPLIER" envDefault:"2.0"`
	Jitter          bool          `env:"RETRY_JITTER" envDefault:"true"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     0,
		MaxElapsedTime:  DefaultMaxElapsedTime,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Multiplier:      DefaultMultiplier,
		Jitter:          true,
	}
}

// Policy converts the config into a Policy. Classifier and report hook are
// runtime concerns, so callers attach them afterwards.
func (c Config) Policy() Policy {
	return Policy{
		MaxAttempts:     c.MaxAttempts,
		MaxElapsedTime:  c.MaxElapsedTime,
		InitialInterval: c.InitialInterval,
		MaxInterval:     c.MaxInterval,
		Multiplier:      c.Multiplier,
		Jitter:          c.Jitter,
	}
}
