package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache holds one parsed value per configuration type.
var cache sync.Map

// loadEnvOnce loads .env files into the process environment exactly once,
// before the first parse. A missing .env file is not an error; explicit
// environment variables always win over file values.
var loadEnvOnce sync.Once

// Load parses environment variables into cfg. The first call for a given
// type parses the environment; subsequent calls for the same type return
// the cached value, so every caller observes identical configuration.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse env into %s: %w", key, err)
	}

	// A concurrent first load may have won; keep whichever was stored
	// first so all callers share one value.
	cached, _ := cache.LoadOrStore(key, *cfg)
	*cfg = cached.(T)
	return nil
}

// MustLoad is Load that panics on failure. Useful during application
// startup where a broken configuration should stop the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
