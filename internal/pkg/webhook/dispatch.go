package webhook

import (
	"context"
	"fmt"
)

// HandlerFunc applies one decoded event against the transactional store
// handle. Handlers must tolerate the referenced entity not existing; the
// ledger guarantees at-most-one invocation per event id.
type HandlerFunc func(ctx context.Context, repo Repository, env *Envelope) error

// Dispatcher holds the closed mapping from event type to handler. Adding a
// new event type means adding a type constant, a handler and an entry here,
// as one reviewable change; no open-ended string matching.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

// NewDispatcher builds the dispatch table for all supported event types.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: map[string]HandlerFunc{
			EventPaymentSucceeded:    HandlePaymentSucceeded,
			EventPaymentFailed:       HandlePaymentFailed,
			EventPaymentRefunded:     HandlePaymentRefunded,
			EventPaymentDisputed:     HandlePaymentDisputed,
			EventSubscriptionCreated: HandleSubscriptionCreated,
			EventSubscriptionUpdated: HandleSubscriptionUpdated,
			EventSubscriptionDeleted: HandleSubscriptionDeleted,
		},
	}
}

// Supports reports whether a handler is registered for the event type.
func (d *Dispatcher) Supports(eventType string) bool {
	_, ok := d.handlers[eventType]
	return ok
}

// Dispatch routes the envelope to its handler. Unknown types return
// ErrUnknownEventType; the pipeline acknowledges them so an ever-growing
// provider feature surface cannot cause retry storms here.
func (d *Dispatcher) Dispatch(ctx context.Context, repo Repository, env *Envelope) error {
	handler, ok := d.handlers[env.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, env.Type)
	}
	return handler(ctx, repo, env)
}
