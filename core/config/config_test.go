package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/config"
)

type bridgeTestConfig struct {
	Channel           string        `env:"CFGTEST_CHANNEL" envDefault:"relay:events"`
	StopCheckInterval time.Duration `env:"CFGTEST_STOP_CHECK_INTERVAL" envDefault:"1s"`
	MaxAttempts       int           `env:"CFGTEST_MAX_ATTEMPTS" envDefault:"4"`
}

type requiredTestConfig struct {
	URL string `env:"CFGTEST_REQUIRED_URL,required"`
}

type cachedTestConfig struct {
	Value string `env:"CFGTEST_CACHED_VALUE" envDefault:"initial"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg bridgeTestConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "relay:events", cfg.Channel)
		assert.Equal(t, time.Second, cfg.StopCheckInterval)
		assert.Equal(t, 4, cfg.MaxAttempts)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CFGTEST_OVERRIDE_CHANNEL", "relay:custom")

		type overrideConfig struct {
			Channel string `env:"CFGTEST_OVERRIDE_CHANNEL" envDefault:"relay:events"`
		}
		var cfg overrideConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "relay:custom", cfg.Channel)
	})

	t.Run("required variable missing", func(t *testing.T) {
		var cfg requiredTestConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CFGTEST_REQUIRED_URL")
	})

	t.Run("nil target", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[bridgeTestConfig](nil), config.ErrNilConfig)
	})
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CFGTEST_CACHED_VALUE", "first")

	var first cachedTestConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	// A later environment change is invisible: the type is already cached.
	t.Setenv("CFGTEST_CACHED_VALUE", "second")

	var second cachedTestConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, first, second)
}

func TestMustLoad(t *testing.T) {
	t.Run("returns parsed config", func(t *testing.T) {
		var cfg bridgeTestConfig
		assert.NotPanics(t, func() {
			config.MustLoad(&cfg)
		})
		assert.Equal(t, "relay:events", cfg.Channel)
	})

	t.Run("panics on failure", func(t *testing.T) {
		type brokenConfig struct {
			Missing string `env:"CFGTEST_MUSTLOAD_MISSING,required"`
		}
		assert.Panics(t, func() {
			var cfg brokenConfig
			config.MustLoad(&cfg)
		})
	})
}
