package broadcast

import (
    "context"
    "time"

    "github.com/cinegate/screening-reservation/internal/queue"
    queue_publisher "github.com/cinegate/screening-reservation/internal/service"
)

// Notifier adapts the hub (and optionally the message broker) to the
// reservation engine's Broadcaster contract.  Both legs are fired after
// the engine commits; the broker publish runs on its own goroutine with
// its own timeout so a slow or absent broker never delays the caller.
type Notifier struct {
    hub    *Hub
    broker bool // also publish deltas to RabbitMQ
}

// NewNotifier returns a Notifier delivering through hub.  When broker
// is true each delta is additionally published to the booking.events
// queue for downstream consumers.
func NewNotifier(hub *Hub, broker bool) *Notifier {
    if hub == nil {
        panic("nil hub passed to NewNotifier")
    }
    return &Notifier{hub: hub, broker: broker}
}

// SeatsBooked announces seats transitioning FREE->BOOKED.
func (n *Notifier) SeatsBooked(screeningID uint64, seatIDs []uint64) {
    n.publish(queue.BookingDelta{
        Type:        queue.DeltaSeatsBooked,
        ScreeningID: screeningID,
        SeatIDs:     seatIDs,
    })
}

// SeatsFreed announces seats transitioning BOOKED->FREE.
func (n *Notifier) SeatsFreed(screeningID uint64, seatIDs []uint64) {
    n.publish(queue.BookingDelta{
        Type:        queue.DeltaSeatsFreed,
        ScreeningID: screeningID,
        SeatIDs:     seatIDs,
    })
}

func (n *Notifier) publish(d queue.BookingDelta) {
    n.hub.Publish(d)
    if !n.broker {
        return
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        // Publish errors are already logged by the publisher; delivery
        // to the broker is best-effort.
        _ = queue_publisher.PublishBookingDelta(ctx, d)
    }()
}
