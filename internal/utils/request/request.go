package request

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var Request = resty.New().SetTransport(&http.Transport{
	Proxy: http.ProxyFromEnvironment, // 通用适配环境变量
}).SetRetryCount(3)

// New returns a fresh resty client for adapters that need their own
// timeout or base URL rather than the shared client.
func New(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTransport(&http.Transport{Proxy: http.ProxyFromEnvironment}).
		SetRetryCount(3).
		SetTimeout(timeout)
}

// Guard combines a client-side rate limiter with a circuit breaker so a
// misbehaving upstream neither gets hammered nor drags every request
// into its failure window.
type Guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard builds a guard for one named provider. rps <= 0 disables
// throttling.
func NewGuard(name string, rps float64, burst int) *Guard {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Guard{limiter: limiter, breaker: breaker}
}

// Do waits for rate-limit headroom, then runs fn under the breaker.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	if g == nil {
		return fn()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
