// Package gateway routes inbound chat messages either to a match waiting for a
// move or back to the command layer, and implements the match input channels.
package gateway

import (
	"context"
	"sync"

	"github.com/park285/RPS-KakaoTalk-bot/internal/irisfast"
)

// Filter decides whether a waiter wants a message.
type Filter func(m *irisfast.Message) bool

type waiter struct {
	id     uint64
	filter Filter
	ch     chan *irisfast.Message
}

// Hub holds the pending waits. Waiters are offered messages in registration order.
type Hub struct {
	mu      sync.Mutex
	next    uint64
	waiters []*waiter
}

func NewHub() *Hub { return &Hub{} }

// Dispatch hands m to the first waiter whose filter matches and reports
// whether it was consumed. Consumed messages are not commands.
func (h *Hub) Dispatch(m *irisfast.Message) bool {
	if m == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, w := range h.waiters {
		if !w.filter(m) {
			continue
		}
		h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
		w.ch <- m // buffered, one send per waiter
		return true
	}
	return false
}

// Register adds a waiter for the next message passing filter. From this point
// on a matching message is held for it even before Wait is called.
func (h *Hub) Register(filter Filter) *Waiter {
	w := &waiter{filter: filter, ch: make(chan *irisfast.Message, 1)}
	h.mu.Lock()
	h.next++
	w.id = h.next
	h.waiters = append(h.waiters, w)
	h.mu.Unlock()
	return &Waiter{hub: h, w: w}
}

// Await is Register followed by Wait.
func (h *Hub) Await(ctx context.Context, filter Filter) (*irisfast.Message, error) {
	return h.Register(filter).Wait(ctx)
}

// Waiter is one registered wait on a Hub.
type Waiter struct {
	hub *Hub
	w   *waiter
}

// Wait blocks until the waiter's message arrives or ctx ends.
func (w *Waiter) Wait(ctx context.Context) (*irisfast.Message, error) {
	select {
	case m := <-w.w.ch:
		return m, nil
	case <-ctx.Done():
		w.Cancel()
		// Dispatch may have won the race before Cancel took the lock.
		select {
		case m := <-w.w.ch:
			return m, nil
		default:
		}
		return nil, ctx.Err()
	}
}

// Cancel unregisters the waiter. It is a no-op once the waiter was satisfied.
func (w *Waiter) Cancel() { w.hub.remove(w.w.id) }

// Pending is the number of registered waiters.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, w := range h.waiters {
		if w.id == id {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return
		}
	}
}
