// Package eventbus dispatches domain events to explicitly registered handlers on a
// bounded worker pool, off the publishing request.
package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/domain"
)

// Envelope carries dispatch metadata for one published event.
type Envelope struct {
	ID         string
	Name       string
	OccurredAt time.Time
	Event      domain.DomainEvent
}

type subscription struct {
	name string
	fn   func(ctx context.Context, env Envelope) error
}

// Bus is an in-process typed publish/subscribe registry. Registration happens at
// startup; Publish may be called concurrently.
type Bus struct {
	pool   *Pool
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	subs map[string][]subscription
}

// New returns a Bus dispatching on pool.
func New(pool *Pool, logger *slog.Logger) *Bus {
	return &Bus{
		pool:   pool,
		logger: logger,
		now:    time.Now,
		subs:   make(map[string][]subscription),
	}
}

// Subscribe registers handler for events of type T under a handler name used in logs.
func Subscribe[T domain.DomainEvent](b *Bus, name string, handler func(ctx context.Context, event T) error) {
	var zero T
	key := zero.EventName()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[key] = append(b.subs[key], subscription{
		name: name,
		fn: func(ctx context.Context, env Envelope) error {
			ev, ok := env.Event.(T)
			if !ok {
				return nil
			}
			return handler(ctx, ev)
		},
	})
}

// Publish schedules every handler of event on the pool and returns immediately.
// ctx values are kept but its cancellation is not, since handlers outlive the request.
// A handler that cannot be scheduled is dropped and logged.
func (b *Bus) Publish(ctx context.Context, event domain.DomainEvent) {
	env := Envelope{
		ID:         uuid.NewString(),
		Name:       event.EventName(),
		OccurredAt: b.now(),
		Event:      event,
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[env.Name]...)
	b.mu.RUnlock()
	if len(subs) == 0 {
		b.logger.DebugContext(ctx, "domain event has no handlers", "event", env.Name, "event_id", env.ID)
		return
	}

	hctx := context.WithoutCancel(ctx)
	for _, sub := range subs {
		ok := b.pool.Submit(func() { b.dispatch(hctx, sub, env) })
		if !ok {
			b.logger.WarnContext(ctx, "domain event dropped",
				"event", env.Name,
				"event_id", env.ID,
				"handler", sub.name,
				"reason", "worker pool saturated or stopped",
			)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, sub subscription, env Envelope) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "domain event handler panicked",
				"event", env.Name, "event_id", env.ID, "handler", sub.name, "panic", r)
		}
	}()
	if err := sub.fn(ctx, env); err != nil {
		b.logger.ErrorContext(ctx, "domain event handler failed",
			"event", env.Name, "event_id", env.ID, "handler", sub.name, "err", err)
		return
	}
	b.logger.DebugContext(ctx, "domain event handled",
		"event", env.Name, "event_id", env.ID, "handler", sub.name,
		"duration_ms", time.Since(start).Milliseconds())
}

// Shutdown stops accepting events and drains queued handlers.
func (b *Bus) Shutdown(ctx context.Context) error {
	return b.pool.Shutdown(ctx)
}
