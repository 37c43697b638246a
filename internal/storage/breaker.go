package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/PauloVieira29/Fitness/internal/logging"
	"github.com/PauloVieira29/Fitness/internal/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrStorageUnavailable is returned while the breaker is open.
var ErrStorageUnavailable = errors.New("object storage temporarily unavailable")

// BreakerSettings configures the storage circuit breaker.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open-state duration
	FailureThreshold uint32        // consecutive failures that open the breaker
}

// breakerStorage guards a FileStorage with a circuit breaker so that a
// failing object store fails fast instead of holding requests.
type breakerStorage struct {
	next FileStorage
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerStorage wraps next.
func NewBreakerStorage(next FileStorage, s BreakerSettings) FileStorage {
	if s.Name == "" {
		s.Name = "storage"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	threshold := s.FailureThreshold
	metrics.StorageBreakerState.WithLabelValues(s.Name).Set(0)

	return &breakerStorage{
		next: next,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        s.Name,
			MaxRequests: s.MaxRequests,
			Interval:    s.Interval,
			Timeout:     s.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.StorageBreakerState.WithLabelValues(name).Set(float64(breakerStateValue(to)))
				logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Storage circuit breaker state changed")
			},
		}),
	}
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *breakerStorage) run(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrStorageUnavailable
	}
	return err
}

func (b *breakerStorage) PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	return b.run(func() error { return b.next.PutObject(ctx, objectKey, contentType, body, size) })
}

func (b *breakerStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return b.run(func() error { return b.next.DeleteObject(ctx, objectKey) })
}

func (b *breakerStorage) ObjectURL(objectKey string) string {
	return b.next.ObjectURL(objectKey)
}

func (b *breakerStorage) Ping(ctx context.Context) error {
	return b.run(func() error { return b.next.Ping(ctx) })
}
