package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/Mosaic/internal/logger"
)

// Guard rate-limits calls to a remote model and stops calling it for a while
// once most recent calls have failed. Calls are attempted once.
type Guard struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuard allows rpm requests per minute with a burst of rpm/10 (at least 1).
func NewGuard(name string, rpm int) *Guard {
	if rpm <= 0 {
		rpm = 60
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Guard{
		name:    name,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

// Do waits for a rate-limit slot, then runs fn through the circuit breaker.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", g.name, err)
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	return err
}
