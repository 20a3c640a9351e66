// Package publisher emits audit events to a store, either synchronously or
// through a buffered background worker.
//
// The publisher is fail-open with respect to the validation path: an audit
// write failure is logged, never propagated, so auditing can never block or
// fail a validation call.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	audit "beamgate/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	events chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for reporting dropped or failed writes.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsyncBuffer makes Emit enqueue into a buffer of the given size drained
// by a background goroutine. Without it, Emit writes synchronously.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.events = make(chan audit.Event, size)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.events != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode a full buffer drops the event rather
// than blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.events == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit append failed", "outcome", event.Outcome, "error", err.Error())
		}
		return nil
	}
	select {
	case p.events <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event", "outcome", event.Outcome)
	}
	return nil
}

// List returns events recorded for a beamline.
func (p *Publisher) List(ctx context.Context, beamLineName string) ([]audit.Event, error) {
	return p.store.ListByBeamline(ctx, beamLineName)
}

// Close drains any buffered events and stops the worker. Safe to call more
// than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.events != nil {
			close(p.events)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "outcome", event.Outcome, "error", err.Error())
		}
	}
}
