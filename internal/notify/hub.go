// Package notify provides coalescing change notifications.
//
// A Hub wakes subscribers when something changed; it never carries the
// change itself. Subscribers re-read the source of truth on wake, so missed
// or merged wake-ups are harmless and a slow subscriber never blocks Notify.
package notify

import "sync"

// Hub fans a change signal out to subscribers. The zero value is ready to use.
type Hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan struct{}
	closed bool
}

// Subscribe returns a wake-up channel and a cancel func. The channel has a
// buffer of one; pending signals are merged.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{}, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subs == nil {
		h.subs = make(map[int]chan struct{})
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Notify wakes every subscriber without blocking.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close closes every subscriber channel. Later subscriptions receive an
// already-closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

// Len reports the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
