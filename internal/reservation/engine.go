package reservation

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/cinegate/screening-reservation/internal/database"
    "github.com/cinegate/screening-reservation/internal/model"
)

// CancellationCutoff is the minimum interval between a cancellation
// request and the screening's start time.  The check uses wall-clock
// time at the moment of the request, not at booking time.
const CancellationCutoff = 48 * time.Hour

// DefaultLockWait bounds how long a reserve or cancel call waits for
// the per-screening exclusive section before failing with ErrBusy.
const DefaultLockWait = 3 * time.Second

// ScreeningStore reads screening records inside the engine's
// transaction.  Implemented by repository.ScreeningRepo.
type ScreeningStore interface {
    GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Screening, error)
}

// SeatStore reads and flips seat statuses inside the engine's
// transaction.  Implemented by repository.SeatRepo.
type SeatStore interface {
    ListByScreeningTx(ctx context.Context, tx *sql.Tx, screeningID uint64) ([]model.Seat, error)
    BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64, status string) error
}

// Ledger appends and mutates booking records inside the engine's
// transaction.  Implemented by repository.BookingRepo.
type Ledger interface {
    CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
    AddSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, screeningID uint64, seatIDs []uint64) error
    ActiveSeatOwnersTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (map[uint64]uint64, error)
    RemoveSeatsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64) ([]uint64, error)
    VoidEmptyTx(ctx context.Context, tx *sql.Tx, bookingIDs []uint64) error
}

// Broadcaster receives booking deltas after a successful commit.
// Delivery must be non-blocking from the engine's perspective; it is a
// convenience channel, not a correctness mechanism, because the engine
// re-validates seat status at commit time regardless of what clients
// believe.
type Broadcaster interface {
    SeatsBooked(screeningID uint64, seatIDs []uint64)
    SeatsFreed(screeningID uint64, seatIDs []uint64)
}

// Engine is the transactional core of the service.  It validates and
// commits seat bookings and cancellations under per-screening mutual
// exclusion: the check-then-commit sequence for one screening is fully
// serialized, so two racing reservations can never both observe FREE
// for the same seat.  The seat status flip and the ledger write happen
// within the same transaction inside the exclusive section, which keeps
// registry and ledger in the same order for every operation.
type Engine struct {
    runner     database.TxRunner
    screenings ScreeningStore
    seats      SeatStore
    ledger     Ledger
    broadcast  Broadcaster
    locks      *lockTable
    lockWait   time.Duration
    now        func() time.Time
}

// NewEngine constructs an Engine.  All dependencies must be non-nil; a
// zero lockWait falls back to DefaultLockWait.
func NewEngine(runner database.TxRunner, screenings ScreeningStore, seats SeatStore, ledger Ledger, broadcast Broadcaster, lockWait time.Duration) *Engine {
    if runner == nil || screenings == nil || seats == nil || ledger == nil || broadcast == nil {
        panic("nil dependency passed to NewEngine")
    }
    if lockWait <= 0 {
        lockWait = DefaultLockWait
    }
    return &Engine{
        runner:     runner,
        screenings: screenings,
        seats:      seats,
        ledger:     ledger,
        broadcast:  broadcast,
        locks:      newLockTable(),
        lockWait:   lockWait,
        now:        time.Now,
    }
}

// Reserve atomically claims the requested seats for userID.  Either
// every requested seat transitions FREE->BOOKED and a booking is
// appended to the ledger, or nothing changes: when any seat is already
// booked the whole request fails with SeatUnavailableError naming the
// conflicting ids, so the caller never ends up with fewer seats than
// intended.
func (e *Engine) Reserve(ctx context.Context, screeningID uint64, seatIDs []uint64, userID uint64) (*model.Booking, error) {
    requested := dedupe(seatIDs)
    if len(requested) == 0 {
        return nil, ErrEmptyRequest
    }
    if err := e.locks.acquire(ctx, screeningID, e.lockWait); err != nil {
        return nil, err
    }
    defer e.locks.release(screeningID)

    var booking *model.Booking
    err := e.runner.InTx(ctx, func(tx *sql.Tx) error {
        if _, err := e.screenings.GetByIDTx(ctx, tx, screeningID); err != nil {
            return err
        }
        seats, err := e.seats.ListByScreeningTx(ctx, tx, screeningID)
        if err != nil {
            return err
        }
        byID := make(map[uint64]model.Seat, len(seats))
        for _, s := range seats {
            byID[s.ID] = s
        }
        var invalid, conflicting []uint64
        for _, id := range requested {
            s, ok := byID[id]
            if !ok {
                invalid = append(invalid, id)
                continue
            }
            if s.Status != model.SeatStatusFree {
                conflicting = append(conflicting, id)
            }
        }
        if len(invalid) > 0 {
            return &InvalidSeatError{SeatIDs: invalid}
        }
        if len(conflicting) > 0 {
            return &SeatUnavailableError{SeatIDs: conflicting}
        }

        b := &model.Booking{
            UserID:      userID,
            ScreeningID: screeningID,
            Status:      model.BookingStatusActive,
        }
        if err := e.ledger.CreateTx(ctx, tx, b); err != nil {
            return err
        }
        if err := e.ledger.AddSeatsTx(ctx, tx, b.ID, screeningID, requested); err != nil {
            return err
        }
        if err := e.seats.BulkUpdateStatusTx(ctx, tx, screeningID, requested, model.SeatStatusBooked); err != nil {
            return err
        }
        for _, id := range requested {
            s := byID[id]
            s.Status = model.SeatStatusBooked
            b.Seats = append(b.Seats, s)
        }
        booking = b
        return nil
    })
    if err != nil {
        return nil, err
    }
    e.broadcast.SeatsBooked(screeningID, requested)
    return booking, nil
}

// Cancel releases the named seats from the caller's active bookings.
// Every named seat must be booked by userID; the request fails as a
// whole otherwise.  Cancellation is permitted only while the screening
// starts at least CancellationCutoff from now.  Cancelling a subset of
// a booking's seats keeps the booking active with its remaining seats;
// removing the last seat voids the booking.
func (e *Engine) Cancel(ctx context.Context, screeningID uint64, seatIDs []uint64, userID uint64) error {
    requested := dedupe(seatIDs)
    if len(requested) == 0 {
        return ErrEmptyRequest
    }
    if err := e.locks.acquire(ctx, screeningID, e.lockWait); err != nil {
        return err
    }
    defer e.locks.release(screeningID)

    err := e.runner.InTx(ctx, func(tx *sql.Tx) error {
        screening, err := e.screenings.GetByIDTx(ctx, tx, screeningID)
        if err != nil {
            return err
        }
        seats, err := e.seats.ListByScreeningTx(ctx, tx, screeningID)
        if err != nil {
            return err
        }
        byID := make(map[uint64]model.Seat, len(seats))
        for _, s := range seats {
            byID[s.ID] = s
        }
        var invalid []uint64
        for _, id := range requested {
            if _, ok := byID[id]; !ok {
                invalid = append(invalid, id)
            }
        }
        if len(invalid) > 0 {
            return &InvalidSeatError{SeatIDs: invalid}
        }
        if screening.StartsAt.Sub(e.now()) < CancellationCutoff {
            return ErrCancellationWindow
        }

        owners, err := e.ledger.ActiveSeatOwnersTx(ctx, tx, screeningID)
        if err != nil {
            return err
        }
        for _, id := range requested {
            seat := byID[id]
            owner, owned := owners[id]
            // Registry and ledger must agree before ownership can be
            // judged; a mismatch is fatal, never silently corrected.
            if seat.IsBooked() != owned {
                log.Printf("reservation: seat %d of screening %d: registry=%s ledger_owned=%t",
                    id, screeningID, seat.Status, owned)
                return ErrInternal
            }
            if !owned || owner != userID {
                return ErrNotOwner
            }
        }

        bookingIDs, err := e.ledger.RemoveSeatsTx(ctx, tx, screeningID, requested)
        if err != nil {
            return err
        }
        if err := e.seats.BulkUpdateStatusTx(ctx, tx, screeningID, requested, model.SeatStatusFree); err != nil {
            return err
        }
        return e.ledger.VoidEmptyTx(ctx, tx, bookingIDs)
    })
    if err != nil {
        return err
    }
    e.broadcast.SeatsFreed(screeningID, requested)
    return nil
}

// dedupe drops zero and duplicate seat ids while preserving the order
// in which ids first appear.
func dedupe(ids []uint64) []uint64 {
    unique := make([]uint64, 0, len(ids))
    seen := make(map[uint64]struct{}, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; !ok {
            seen[id] = struct{}{}
            unique = append(unique, id)
        }
    }
    return unique
}
