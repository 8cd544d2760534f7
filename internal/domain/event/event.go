package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Event is a domain fact published after the aggregate that raised it is committed
type Event interface {
	Name() string
}

// InvoiceCreatedForProjectName identifies InvoiceCreatedForProject events
const InvoiceCreatedForProjectName = "invoice.created_for_project"

// InvoiceCreatedForProject is raised when a payable invoice linked to a project is created
type InvoiceCreatedForProject struct {
	InvoiceID  string
	ProjectID  string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// Name implements Event
func (InvoiceCreatedForProject) Name() string { return InvoiceCreatedForProjectName }

// Handler reacts to a published event
type Handler func(ctx context.Context, e Event) error

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Bus is a synchronous in-process event bus. Handlers run on the publishing
// goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for events with the given name
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers e to every subscribed handler. All handlers run even when
// one fails; their errors are joined.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Name()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
