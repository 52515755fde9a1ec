// internal/event/bus.go
package event

import (
	"context"
	"fmt"
	"sync"

	"ledgerpay/internal/domain"
	"ledgerpay/internal/repository"
)

// Topic names a class of domain events.
type Topic string

const (
	TopicAccountCredited Topic = "account.credited"
	TopicAccountDebited  Topic = "account.debited"
)

// Event is a typed domain event payload.
type Event interface {
	Topic() Topic
}

// CreditRecorded is published when an account balance was incremented and the
// matching ledger entry is pending insertion.
type CreditRecorded struct {
	Entry *domain.Transaction
}

// Topic implements Event.
func (CreditRecorded) Topic() Topic { return TopicAccountCredited }

// DebitRecorded is published when an account balance was decremented and the
// matching ledger entry is pending insertion.
type DebitRecorded struct {
	Entry *domain.Transaction
}

// Topic implements Event.
func (DebitRecorded) Topic() Topic { return TopicAccountDebited }

// Handler consumes one event. The DBExecutor is the publisher's open atomic
// unit; anything the handler writes through it commits or rolls back together
// with the balance mutation that triggered the event.
type Handler func(ctx context.Context, q repository.DBExecutor, e Event) error

// Bus is an in-process publish/subscribe channel with synchronous delivery.
// Publication runs every subscriber inline, in subscription order, and stops
// at the first error so the caller can abort its unit of work. Delivery is
// never fire-and-forget; that is the bus's contract, not a convention.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]Handler)}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish delivers e to every subscriber of its topic, in order, passing the
// caller's open DBExecutor through. The first handler error aborts delivery
// and is returned to the publisher.
func (b *Bus) Publish(ctx context.Context, q repository.DBExecutor, e Event) error {
	b.mu.RLock()
	handlers := b.subs[e.Topic()]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, q, e); err != nil {
			return fmt.Errorf("event %s: %w", e.Topic(), err)
		}
	}
	return nil
}
