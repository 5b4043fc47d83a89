// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/relay/core/config"
//
//	type RedisConfig struct {
//		URL            string        `env:"REDIS_URL,required"`
//		Channel        string        `env:"RELAY_REDIS_CHANNEL" envDefault:"relay:events"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"5s"`
//	}
//
//	func main() {
//		var redis RedisConfig
//
//		// Load with error handling
//		if err := config.Load(&redis); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&redis)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 RedisConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 RedisConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently:
//
//	type RetryConfig struct {
//		MaxAttempts int `env:"RELAY_RETRY_MAX_ATTEMPTS" envDefault:"0"`
//	}
//
//	type BridgeConfig struct {
//		StopCheckInterval time.Duration `env:"RELAY_STOP_CHECK_INTERVAL" envDefault:"1s"`
//	}
//
//	// Each type has its own cache entry
//	config.MustLoad(&RetryConfig{})
//	config.MustLoad(&BridgeConfig{})
package config
