package retry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/relay/core/retry"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := retry.DefaultConfig()

	assert.Zero(t, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.MaxElapsedTime)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 20*time.Second, cfg.MaxInterval)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.True(t, cfg.Jitter)
}

func TestConfig_Policy(t *testing.T) {
	t.Parallel()

	cfg := retry.Config{
		MaxAttempts:     7,
		MaxElapsedTime:  90 * time.Second,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
		Jitter:          false,
	}

	p := cfg.Policy()

	assert.Equal(t, 7, p.MaxAttempts)
	assert.Equal(t, 90*time.Second, p.MaxElapsedTime)
	assert.Equal(t, 250*time.Millisecond, p.InitialInterval)
	assert.Equal(t, 5*time.Second, p.MaxInterval)
	assert.Equal(t, 1.5, p.Multiplier)
	assert.False(t, p.Jitter)
	assert.Nil(t, p.Transient, "classifier is attached by the caller, not the config")
	assert.Nil(t, p.OnRetry)
}
