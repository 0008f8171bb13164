// Package broadcast fans booking deltas out to clients watching a
// screening's seat map.  It is a convenience/UX channel, not a
// correctness mechanism: the reservation engine re-validates seat
// status at commit time, so a dropped delta can never enable a double
// booking.
package broadcast

import (
    "sync"

    "github.com/cinegate/screening-reservation/internal/queue"
)

// subscriberBuffer is the per-subscriber channel capacity.  A delta is
// dropped for a subscriber whose buffer is full so a slow client can
// never block the committing operation.
const subscriberBuffer = 16

// Subscription is one client's view of a screening's delta stream.
// Events are read from Events(); Close unregisters the subscription and
// releases its channel.
type Subscription struct {
    hub         *Hub
    screeningID uint64
    ch          chan queue.BookingDelta
    once        sync.Once
}

// Events returns the channel deltas are delivered on.  The channel is
// closed after Close.
func (s *Subscription) Events() <-chan queue.BookingDelta {
    return s.ch
}

// Close unregisters the subscription.  It is safe to call more than
// once and safe to call concurrently with Publish.
func (s *Subscription) Close() {
    s.once.Do(func() {
        s.hub.remove(s)
        close(s.ch)
    })
}

// Hub is an in-process publish/subscribe exchange keyed by screening
// id.  Publish never blocks; Subscribe registers a buffered channel the
// HTTP layer drains into its event stream.
type Hub struct {
    mu   sync.RWMutex
    subs map[uint64]map[*Subscription]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
    return &Hub{subs: make(map[uint64]map[*Subscription]struct{})}
}

// Subscribe registers a new subscription for the given screening.
func (h *Hub) Subscribe(screeningID uint64) *Subscription {
    sub := &Subscription{
        hub:         h,
        screeningID: screeningID,
        ch:          make(chan queue.BookingDelta, subscriberBuffer),
    }
    h.mu.Lock()
    set, ok := h.subs[screeningID]
    if !ok {
        set = make(map[*Subscription]struct{})
        h.subs[screeningID] = set
    }
    set[sub] = struct{}{}
    h.mu.Unlock()
    return sub
}

// Publish delivers a delta to every subscription watching its
// screening.  Delivery to a subscriber with a full buffer is skipped.
func (h *Hub) Publish(d queue.BookingDelta) {
    h.mu.RLock()
    defer h.mu.RUnlock()
    for sub := range h.subs[d.ScreeningID] {
        select {
        case sub.ch <- d:
        default: // slow subscriber, drop
        }
    }
}

// Subscribers reports how many subscriptions are watching a screening.
func (h *Hub) Subscribers(screeningID uint64) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.subs[screeningID])
}

func (h *Hub) remove(sub *Subscription) {
    h.mu.Lock()
    defer h.mu.Unlock()
    set, ok := h.subs[sub.screeningID]
    if !ok {
        return
    }
    delete(set, sub)
    if len(set) == 0 {
        delete(h.subs, sub.screeningID)
    }
}
