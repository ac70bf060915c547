package analysis

import (
	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/types"

	"github.com/sony/gobreaker/v2"
)

// BackendCircuitBreaker wraps calls to the external analysis service with
// circuit breaker protection.
type BackendCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*types.BackendResponse]
}

// NewBackendCircuitBreaker creates a circuit breaker for the analysis
// backend, or nil when disabled.
func NewBackendCircuitBreaker(cfg *config.BackendConfig, logger *errors.Logger) *BackendCircuitBreaker {
	if !cfg.CircuitBreaker.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "analysis-backend",
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.CircuitBreaker.MinRequests &&
				failureRatio >= cfg.CircuitBreaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.CircuitBreaker.MaxRequests,
				"failure_threshold", cfg.CircuitBreaker.FailureThreshold)
		},
	}

	return &BackendCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*types.BackendResponse](settings),
	}
}

// Execute runs fn under the breaker. A nil breaker executes directly.
func (b *BackendCircuitBreaker) Execute(fn func() (*types.BackendResponse, error)) (*types.BackendResponse, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics for the stats endpoint.
func (b *BackendCircuitBreaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the breaker is closed (or absent).
func (b *BackendCircuitBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
