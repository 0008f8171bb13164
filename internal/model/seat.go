package model

import (
    "strconv"
    "time"
)

// Seat availability statuses.  A seat is either free or booked; holds
// and pricing tiers are out of scope for this service.
const (
    SeatStatusFree   = "FREE"   // seat is available for reservation
    SeatStatusBooked = "BOOKED" // seat is claimed by an active booking
)

// Seat describes a bookable seat within a screening's fixed layout.
// Seats are uniquely identified within a screening by their row label
// and seat number.  The status is the only field the reservation core
// ever mutates; identity fields never change.
//
// Fields:
//  ID          – primary key identifier.
//  ScreeningID – screening to which this seat belongs.
//  RowLabel    – letter or string designating the row (A, B, AA).
//  SeatNumber  – number of the seat within the row (1-based).
//  Status      – FREE or BOOKED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
    ID          uint64    // seats.id
    ScreeningID uint64    // seats.screening_id
    RowLabel    string    // seats.row_label
    SeatNumber  uint32    // seats.seat_number
    Status      string    // seats.status
    CreatedAt   time.Time // seats.created_at
    UpdatedAt   time.Time // seats.updated_at
}

// Label returns the display label for the seat, e.g. "A1" for row A,
// seat 1.  Clients group seats by the leading row letters.
func (s Seat) Label() string {
    return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}

// IsBooked reports whether the seat is currently claimed by a booking.
func (s Seat) IsBooked() bool {
    return s.Status == SeatStatusBooked
}
