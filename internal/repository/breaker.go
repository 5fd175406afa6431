package repository

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/iliyamo/sakila-admin/internal/database"
	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/metrics"
)

// BreakerSettings tunes the data-access circuit breaker.
type BreakerSettings struct {
	Name        string
	MinRequests uint32
	FailureRate float64
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests
// and probes again after 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "mysql",
		MinRequests: 10,
		FailureRate: 0.6,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	}
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[any] {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 3,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < s.MinRequests {
				return false
			}
			ratio := float64(c.TotalFailures) / float64(c.Requests)
			if ratio >= s.FailureRate {
				logging.Warn().Uint32("failures", c.TotalFailures).Float64("failure_rate", ratio).Msg("opening data-access circuit")
				return true
			}
			return false
		},
		// A missing table or a caller hanging up says nothing about database health.
		IsSuccessful: func(err error) bool {
			return err == nil || database.IsNoSuchTable(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// guarded runs fn through the breaker and records its outcome.
func guarded[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	name := cb.Name()
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
	case isRejected(err):
		metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
		return zero, err
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}
