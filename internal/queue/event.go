// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking delta event types.  The names match the events the web client
// listens for on its live seat map.
const (
    DeltaSeatsBooked = "seatsBooked"
    DeltaSeatsFreed  = "seatsFreed"
)

// BookingDelta describes seats transitioning between FREE and BOOKED
// for one screening.  It is fanned out to clients watching that
// screening's seat map and published to the broker for downstream
// consumers.  Delivery is best-effort: a dropped delta can never cause
// a double booking because the reservation engine re-validates seat
// status at commit time.
type BookingDelta struct {
    Type        string   `json:"type"`
    ScreeningID uint64   `json:"screening_id"`
    SeatIDs     []uint64 `json:"seat_ids"`
}
