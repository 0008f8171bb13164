// Package reservation implements the serialized commit path that
// guarantees exclusive seat ownership per screening.  The error values
// here form the caller-facing taxonomy: all of them are recoverable and
// are translated into HTTP responses by the handler layer, except
// ErrInternal which signals a ledger/registry invariant violation.
package reservation

import (
    "errors"
    "fmt"
)

// ErrEmptyRequest is returned when a reserve or cancel call names no
// seats after deduplication.
var ErrEmptyRequest = errors.New("no seats requested")

// ErrNotOwner is returned when a cancellation names a seat that is not
// actively booked by the calling user.
var ErrNotOwner = errors.New("seat not owned by user")

// ErrCancellationWindow is returned when a cancellation arrives later
// than the cutoff before the screening's start time.
var ErrCancellationWindow = errors.New("cancellation window expired")

// ErrBusy is returned when the per-screening exclusive section cannot
// be acquired within the engine's wait bound.  Callers may retry.
var ErrBusy = errors.New("screening busy, try again")

// ErrInternal is returned when the seat registry and the booking ledger
// disagree about a seat's state.  This is a programming-invariant
// violation: the engine logs the details and surfaces only this opaque
// error, never guessing which side is right.
var ErrInternal = errors.New("internal inconsistency")

// SeatUnavailableError reports a reservation conflict: one or more of
// the requested seats were already booked when the exclusive section
// observed them.  It carries the conflicting ids so the client can
// re-offer the remaining free seats without restarting selection.
type SeatUnavailableError struct {
    SeatIDs []uint64
}

func (e *SeatUnavailableError) Error() string {
    return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

// InvalidSeatError reports seat ids that do not belong to the screening
// named by the request.
type InvalidSeatError struct {
    SeatIDs []uint64
}

func (e *InvalidSeatError) Error() string {
    return fmt.Sprintf("invalid seats for screening: %v", e.SeatIDs)
}
