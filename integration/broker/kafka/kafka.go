package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

// probeBrokers dials broker addresses until one answers.
func probeBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}
	var lastErr error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	return lastErr
}

// Healthcheck returns a health check function that verifies at least one
// broker answers a dial. Suitable for readiness probes.
func Healthcheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := probeBrokers(ctx, brokers); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
