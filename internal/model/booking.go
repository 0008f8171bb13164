package model

import "time"

// Booking statuses.  A booking stays ACTIVE until every one of its
// seats has been cancelled, at which point it becomes CANCELLED and is
// kept as history.
const (
    BookingStatusActive    = "ACTIVE"
    BookingStatusCancelled = "CANCELLED"
)

// Booking records an atomic claim of one or more seats within one
// screening by one user.  It is immutable once committed except for
// cancellation, which removes seat ids from the booking (possibly all
// of them).
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who made the booking.
//  ScreeningID – screening being booked.
//  Status      – ACTIVE or CANCELLED.
//  CreatedAt   – commit timestamp.
//  Seats       – seats claimed under this booking, ordered by row label
//                then seat number.  Populated by the reservation engine
//                and the ledger; not a table column.
type Booking struct {
    ID          uint64    // bookings.id
    UserID      uint64    // bookings.user_id
    ScreeningID uint64    // bookings.screening_id
    Status      string    // bookings.status
    CreatedAt   time.Time // bookings.created_at
    Seats       []Seat    // joined from booking_seats
}

// BookingSeat links a booking to an individual seat.  Each row is one
// seat-level ownership claim; cancellation deletes rows from this table
// so ownership is always tracked per seat id, never only per booking.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – reference to the owning booking.
//  ScreeningID – screening in which the seat is booked.
//  SeatID      – seat that has been claimed.
//  CreatedAt   – creation timestamp.
type BookingSeat struct {
    ID          uint64    // booking_seats.id
    BookingID   uint64    // booking_seats.booking_id
    ScreeningID uint64    // booking_seats.screening_id
    SeatID      uint64    // booking_seats.seat_id
    CreatedAt   time.Time // booking_seats.created_at
}
