package analysis

import (
	"log/slog"
	"testing"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/types"
)

func breakerConfig(enabled bool) *config.BackendConfig {
	return &config.BackendConfig{
		Endpoint: "http://localhost:8000/analyze-resume-vs-job/",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

func TestCircuitBreakerEnabled(t *testing.T) {
	cb := NewBackendCircuitBreaker(breakerConfig(true), errors.NewLogger(slog.LevelError))
	if cb == nil {
		t.Fatal("Circuit breaker should not be nil when enabled")
	}

	stats := cb.GetStats()

	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("Circuit breaker name not found")
	}
	if name != "analysis-backend" {
		t.Errorf("Expected circuit breaker name 'analysis-backend', got '%s'", name)
	}

	state, ok := stats["state"].(string)
	if !ok {
		t.Fatal("Circuit breaker state not found")
	}
	if state != "closed" {
		t.Errorf("Expected initial state 'closed', got '%s'", state)
	}

	enabled, ok := stats["enabled"].(bool)
	if !ok {
		t.Fatal("Circuit breaker enabled status not found")
	}
	if !enabled {
		t.Error("Circuit breaker should be enabled")
	}

	if !cb.IsHealthy() {
		t.Error("Circuit breaker should be healthy initially")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewBackendCircuitBreaker(breakerConfig(false), errors.NewLogger(slog.LevelError))
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes and reports healthy.
	resp, err := cb.Execute(func() (*types.BackendResponse, error) {
		return &types.BackendResponse{MatchScore: 50}, nil
	})
	if err != nil {
		t.Fatalf("Execute on nil breaker failed: %v", err)
	}
	if resp.MatchScore != 50 {
		t.Errorf("Expected passthrough response, got %+v", resp)
	}
	if !cb.IsHealthy() {
		t.Error("Nil breaker should report healthy")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Nil breaker stats should report enabled=false")
	}
}

func TestCircuitBreakerExecutePassthrough(t *testing.T) {
	cb := NewBackendCircuitBreaker(breakerConfig(true), errors.NewLogger(slog.LevelError))

	resp, err := cb.Execute(func() (*types.BackendResponse, error) {
		return &types.BackendResponse{MatchScore: 80, ATSScore: 70}, nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.MatchScore != 80 || resp.ATSScore != 70 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if !cb.IsHealthy() {
		t.Error("Breaker should stay healthy after a success")
	}
}
