// Package effect carries one-shot intents from the data layer to the front
// end. A Mailbox holds at most one pending value; a newer emit replaces an
// unconsumed one and every value is delivered at most once.
package effect

import (
	"context"
	"sync"

	"github.com/Tiliavir/daybook/internal/model"
)

// Mailbox is a single-slot, last-emit-wins, consume-once channel.
type Mailbox[T any] struct {
	mu     sync.Mutex
	value  T
	full   bool
	notify chan struct{}
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Emit stores v, dropping any value that was not consumed yet.
func (m *Mailbox[T]) Emit(v T) {
	m.mu.Lock()
	m.value = v
	m.full = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Poll consumes the pending value without blocking.
func (m *Mailbox[T]) Poll() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if !m.full {
		return zero, false
	}
	v := m.value
	m.value = zero
	m.full = false
	return v, true
}

// Take blocks until a value is pending or ctx ends.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := m.Poll(); ok {
			return v, nil
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Refresh asks the front end to reload a domain's data.
type Refresh struct {
	Domain model.Domain
}

// Bus groups the mailboxes the application publishes to. The edit mailboxes
// carry a selected record from a list view to a separate edit view; the CLI
// edits in one step and does not use them.
type Bus struct {
	refresh      map[model.Domain]*Mailbox[Refresh]
	EditMemo     *Mailbox[model.Memo]
	EditSchedule *Mailbox[model.Schedule]
}

func NewBus() *Bus {
	b := &Bus{
		refresh:      make(map[model.Domain]*Mailbox[Refresh], len(model.Domains)),
		EditMemo:     NewMailbox[model.Memo](),
		EditSchedule: NewMailbox[model.Schedule](),
	}
	for _, d := range model.Domains {
		b.refresh[d] = NewMailbox[Refresh]()
	}
	return b
}

// Refresh returns the refresh mailbox of d.
func (b *Bus) Refresh(d model.Domain) *Mailbox[Refresh] {
	return b.refresh[d]
}

// EmitRefresh signals that d's collection changed underneath the front end.
func (b *Bus) EmitRefresh(d model.Domain) {
	if m, ok := b.refresh[d]; ok {
		m.Emit(Refresh{Domain: d})
	}
}
