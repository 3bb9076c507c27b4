package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultRelayPolicy is used for publishing outbox messages to the broker.
func DefaultRelayPolicy(name string, log *zap.Logger, m *Metrics) Policy {
	return Policy{
		Name:     name,
		Metrics:  m,
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("relay retry", zap.String("policy", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay retries exhausted", zap.String("policy", name), zap.Error(err))
			}
		},
	}
}
