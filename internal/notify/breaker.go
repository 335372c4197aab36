package notify

import (
	"context"

	"github.com/aman-churiwal/getyoursite/internal/circuitbreaker"
)

// Guarded short-circuits a notifier whose backend keeps failing.
type Guarded struct {
	next    Notifier
	breaker *circuitbreaker.CircuitBreaker
}

func WithBreaker(next Notifier, breaker *circuitbreaker.CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) Name() string {
	return g.next.Name()
}

func (g *Guarded) Send(ctx context.Context, n Notification) error {
	return g.breaker.Call(func() error {
		return g.next.Send(ctx, n)
	})
}

func (g *Guarded) State() circuitbreaker.State {
	return g.breaker.State()
}
