package reservation

import (
    "context"
    "database/sql"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinegate/screening-reservation/internal/model"
    "github.com/cinegate/screening-reservation/internal/repository"
)

// fakeWorld is an in-memory stand-in for the MySQL-backed stores.  It
// implements TxRunner, ScreeningStore, SeatStore and Ledger in one
// struct so a test can inspect registry and ledger together.  InTx
// snapshots the state and restores it when the callback fails, which
// mirrors a real transaction rollback.
type fakeWorld struct {
    mu         sync.Mutex
    screenings map[uint64]model.Screening
    seats      map[uint64]model.Seat
    bookings   map[uint64]*model.Booking
    bookedBy   map[uint64]map[uint64]struct{} // booking id -> seat ids
    nextID     uint64

    failCreate error // when set, CreateTx fails with this error
}

func newFakeWorld(screening model.Screening, seatCount int) *fakeWorld {
    w := &fakeWorld{
        screenings: map[uint64]model.Screening{screening.ID: screening},
        seats:      make(map[uint64]model.Seat),
        bookings:   make(map[uint64]*model.Booking),
        bookedBy:   make(map[uint64]map[uint64]struct{}),
    }
    for i := 1; i <= seatCount; i++ {
        id := uint64(i)
        w.seats[id] = model.Seat{
            ID:          id,
            ScreeningID: screening.ID,
            RowLabel:    "A",
            SeatNumber:  uint32(i),
            Status:      model.SeatStatusFree,
        }
    }
    return w
}

// snapshot deep-copies the mutable state so a failed callback can be
// rolled back.
func (w *fakeWorld) snapshot() (map[uint64]model.Seat, map[uint64]*model.Booking, map[uint64]map[uint64]struct{}) {
    seats := make(map[uint64]model.Seat, len(w.seats))
    for k, v := range w.seats {
        seats[k] = v
    }
    bookings := make(map[uint64]*model.Booking, len(w.bookings))
    for k, v := range w.bookings {
        c := *v
        bookings[k] = &c
    }
    bookedBy := make(map[uint64]map[uint64]struct{}, len(w.bookedBy))
    for k, v := range w.bookedBy {
        set := make(map[uint64]struct{}, len(v))
        for id := range v {
            set[id] = struct{}{}
        }
        bookedBy[k] = set
    }
    return seats, bookings, bookedBy
}

func (w *fakeWorld) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    w.mu.Lock()
    defer w.mu.Unlock()
    seats, bookings, bookedBy := w.snapshot()
    if err := fn(nil); err != nil {
        w.seats, w.bookings, w.bookedBy = seats, bookings, bookedBy
        return err
    }
    return nil
}

func (w *fakeWorld) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Screening, error) {
    s, ok := w.screenings[id]
    if !ok {
        return nil, repository.ErrScreeningNotFound
    }
    return &s, nil
}

func (w *fakeWorld) ListByScreeningTx(ctx context.Context, tx *sql.Tx, screeningID uint64) ([]model.Seat, error) {
    var out []model.Seat
    for i := 1; i <= len(w.seats); i++ {
        if s, ok := w.seats[uint64(i)]; ok && s.ScreeningID == screeningID {
            out = append(out, s)
        }
    }
    return out, nil
}

func (w *fakeWorld) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64, status string) error {
    for _, id := range seatIDs {
        s, ok := w.seats[id]
        if !ok || s.ScreeningID != screeningID {
            return repository.ErrSeatNotFound
        }
        s.Status = status
        w.seats[id] = s
    }
    return nil
}

func (w *fakeWorld) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    if w.failCreate != nil {
        return w.failCreate
    }
    w.nextID++
    b.ID = w.nextID
    b.CreatedAt = time.Now()
    c := *b
    w.bookings[b.ID] = &c
    return nil
}

func (w *fakeWorld) AddSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, screeningID uint64, seatIDs []uint64) error {
    set, ok := w.bookedBy[bookingID]
    if !ok {
        set = make(map[uint64]struct{})
        w.bookedBy[bookingID] = set
    }
    for _, id := range seatIDs {
        set[id] = struct{}{}
    }
    return nil
}

func (w *fakeWorld) ActiveSeatOwnersTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (map[uint64]uint64, error) {
    owners := make(map[uint64]uint64)
    for bid, set := range w.bookedBy {
        b := w.bookings[bid]
        if b == nil || b.Status != model.BookingStatusActive || b.ScreeningID != screeningID {
            continue
        }
        for seatID := range set {
            owners[seatID] = b.UserID
        }
    }
    return owners, nil
}

func (w *fakeWorld) RemoveSeatsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64) ([]uint64, error) {
    var touched []uint64
    for bid, set := range w.bookedBy {
        b := w.bookings[bid]
        if b == nil || b.ScreeningID != screeningID {
            continue
        }
        before := len(set)
        for _, id := range seatIDs {
            delete(set, id)
        }
        if len(set) != before {
            touched = append(touched, bid)
        }
    }
    return touched, nil
}

func (w *fakeWorld) VoidEmptyTx(ctx context.Context, tx *sql.Tx, bookingIDs []uint64) error {
    for _, bid := range bookingIDs {
        if len(w.bookedBy[bid]) == 0 {
            if b := w.bookings[bid]; b != nil {
                b.Status = model.BookingStatusCancelled
            }
        }
    }
    return nil
}

// seatStatus reads a seat's status outside any engine call.
func (w *fakeWorld) seatStatus(t *testing.T, id uint64) string {
    t.Helper()
    w.mu.Lock()
    defer w.mu.Unlock()
    s, ok := w.seats[id]
    require.True(t, ok, "seat %d missing", id)
    return s.Status
}

// delta captures one broadcast call.
type delta struct {
    screeningID uint64
    seatIDs     []uint64
}

// recorder collects broadcast deltas for assertions.
type recorder struct {
    mu     sync.Mutex
    booked []delta
    freed  []delta
}

func (r *recorder) SeatsBooked(screeningID uint64, seatIDs []uint64) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.booked = append(r.booked, delta{screeningID, seatIDs})
}

func (r *recorder) SeatsFreed(screeningID uint64, seatIDs []uint64) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.freed = append(r.freed, delta{screeningID, seatIDs})
}

const testScreeningID = uint64(7)

// newTestEngine builds an engine over a fresh fake world with a
// screening far enough in the future that cancellations are allowed.
func newTestEngine(t *testing.T, seatCount int) (*Engine, *fakeWorld, *recorder) {
    t.Helper()
    screening := model.Screening{
        ID:       testScreeningID,
        MovieID:  1,
        StartsAt: time.Now().Add(30 * 24 * time.Hour).UTC(),
    }
    w := newFakeWorld(screening, seatCount)
    rec := &recorder{}
    e := NewEngine(w, w, w, w, rec, 50*time.Millisecond)
    return e, w, rec
}

func TestReserveBooksAllSeatsAtomically(t *testing.T) {
    e, w, rec := newTestEngine(t, 5)

    b, err := e.Reserve(context.Background(), testScreeningID, []uint64{1, 2}, 42)
    require.NoError(t, err)
    require.NotNil(t, b)

    assert.Equal(t, uint64(42), b.UserID)
    assert.Equal(t, model.BookingStatusActive, b.Status)
    require.Len(t, b.Seats, 2)
    assert.Equal(t, "A1", b.Seats[0].Label())
    assert.Equal(t, "A2", b.Seats[1].Label())

    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 1))
    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 2))
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 3))

    require.Len(t, rec.booked, 1)
    assert.Equal(t, testScreeningID, rec.booked[0].screeningID)
    assert.Equal(t, []uint64{1, 2}, rec.booked[0].seatIDs)
}

func TestReserveDropsDuplicateAndZeroIDs(t *testing.T) {
    e, w, _ := newTestEngine(t, 3)

    b, err := e.Reserve(context.Background(), testScreeningID, []uint64{2, 0, 2, 1}, 42)
    require.NoError(t, err)
    require.Len(t, b.Seats, 2)
    // Order of first appearance is preserved.
    assert.Equal(t, uint64(2), b.Seats[0].ID)
    assert.Equal(t, uint64(1), b.Seats[1].ID)
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 3))
}

func TestReserveEmptyRequest(t *testing.T) {
    e, _, rec := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), testScreeningID, nil, 42)
    assert.ErrorIs(t, err, ErrEmptyRequest)

    // A request of only zero ids is empty after deduplication.
    _, err = e.Reserve(context.Background(), testScreeningID, []uint64{0, 0}, 42)
    assert.ErrorIs(t, err, ErrEmptyRequest)
    assert.Empty(t, rec.booked)
}

func TestReserveUnknownScreening(t *testing.T) {
    e, _, _ := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), 999, []uint64{1}, 42)
    assert.ErrorIs(t, err, repository.ErrScreeningNotFound)
}

func TestReserveRejectsForeignSeatIDs(t *testing.T) {
    e, w, rec := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{1, 88, 99}, 42)
    var invalid *InvalidSeatError
    require.ErrorAs(t, err, &invalid)
    assert.Equal(t, []uint64{88, 99}, invalid.SeatIDs)

    // Nothing was committed, including the valid seat of the batch.
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 1))
    assert.Empty(t, rec.booked)
}

func TestReserveConflictLeavesEverythingUntouched(t *testing.T) {
    e, w, rec := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{2}, 7)
    require.NoError(t, err)

    _, err = e.Reserve(context.Background(), testScreeningID, []uint64{1, 2}, 42)
    var unavailable *SeatUnavailableError
    require.ErrorAs(t, err, &unavailable)
    assert.Equal(t, []uint64{2}, unavailable.SeatIDs)

    // All-or-nothing: seat 1 was not claimed and no booking was added
    // for user 42.
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 1))
    w.mu.Lock()
    assert.Len(t, w.bookings, 1)
    w.mu.Unlock()
    require.Len(t, rec.booked, 1) // only the first reservation
}

func TestReserveConcurrentOverlapExactlyOneWins(t *testing.T) {
    e, w, _ := newTestEngine(t, 3)

    type result struct {
        booking *model.Booking
        err     error
    }
    results := make(chan result, 2)
    var start sync.WaitGroup
    start.Add(1)
    for _, req := range [][]uint64{{1, 2}, {2, 3}} {
        go func(ids []uint64) {
            start.Wait()
            b, err := e.Reserve(context.Background(), testScreeningID, ids, 42)
            results <- result{b, err}
        }(req)
    }
    start.Done()

    var wins, conflicts int
    for i := 0; i < 2; i++ {
        r := <-results
        if r.err == nil {
            wins++
            continue
        }
        var unavailable *SeatUnavailableError
        require.ErrorAs(t, r.err, &unavailable)
        assert.Equal(t, []uint64{2}, unavailable.SeatIDs)
        conflicts++
    }
    assert.Equal(t, 1, wins)
    assert.Equal(t, 1, conflicts)
    // The contested seat ended up booked exactly once; the loser's
    // second seat stayed free.
    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 2))
}

func TestReserveRetryAfterLedgerFailure(t *testing.T) {
    e, w, rec := newTestEngine(t, 3)

    boom := errors.New("ledger down")
    w.failCreate = boom
    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{1, 2}, 42)
    assert.ErrorIs(t, err, boom)
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 1))
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 2))
    assert.Empty(t, rec.booked)

    // The failed attempt left no residue, so the identical retry wins.
    w.failCreate = nil
    b, err := e.Reserve(context.Background(), testScreeningID, []uint64{1, 2}, 42)
    require.NoError(t, err)
    assert.Len(t, b.Seats, 2)
}

func TestReserveBusyWhenScreeningLocked(t *testing.T) {
    e, _, _ := newTestEngine(t, 3)

    // Hold the screening's exclusive section so the reservation cannot
    // enter it within its wait bound.
    require.NoError(t, e.locks.acquire(context.Background(), testScreeningID, time.Second))
    defer e.locks.release(testScreeningID)

    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{1}, 42)
    assert.ErrorIs(t, err, ErrBusy)
}

func TestCancelPartialKeepsBookingActive(t *testing.T) {
    e, w, rec := newTestEngine(t, 3)

    b, err := e.Reserve(context.Background(), testScreeningID, []uint64{1, 2, 3}, 42)
    require.NoError(t, err)

    err = e.Cancel(context.Background(), testScreeningID, []uint64{1, 3}, 42)
    require.NoError(t, err)

    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 1))
    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 2))
    assert.Equal(t, model.SeatStatusFree, w.seatStatus(t, 3))

    w.mu.Lock()
    assert.Equal(t, model.BookingStatusActive, w.bookings[b.ID].Status)
    assert.Len(t, w.bookedBy[b.ID], 1)
    w.mu.Unlock()

    require.Len(t, rec.freed, 1)
    assert.Equal(t, []uint64{1, 3}, rec.freed[0].seatIDs)
}

func TestCancelLastSeatVoidsBooking(t *testing.T) {
    e, w, _ := newTestEngine(t, 3)

    b, err := e.Reserve(context.Background(), testScreeningID, []uint64{1}, 42)
    require.NoError(t, err)

    require.NoError(t, e.Cancel(context.Background(), testScreeningID, []uint64{1}, 42))

    w.mu.Lock()
    assert.Equal(t, model.BookingStatusCancelled, w.bookings[b.ID].Status)
    w.mu.Unlock()

    // The freed seat can immediately be booked by someone else.
    _, err = e.Reserve(context.Background(), testScreeningID, []uint64{1}, 99)
    assert.NoError(t, err)
}

func TestCancelSomeoneElsesSeat(t *testing.T) {
    e, w, rec := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{1}, 7)
    require.NoError(t, err)

    err = e.Cancel(context.Background(), testScreeningID, []uint64{1}, 42)
    assert.ErrorIs(t, err, ErrNotOwner)
    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 1))
    assert.Empty(t, rec.freed)

    // A free seat is not owned by anyone either.
    err = e.Cancel(context.Background(), testScreeningID, []uint64{2}, 42)
    assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelMixedOwnershipFailsAsAWhole(t *testing.T) {
    e, w, _ := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{1}, 42)
    require.NoError(t, err)
    _, err = e.Reserve(context.Background(), testScreeningID, []uint64{2}, 7)
    require.NoError(t, err)

    err = e.Cancel(context.Background(), testScreeningID, []uint64{1, 2}, 42)
    assert.ErrorIs(t, err, ErrNotOwner)
    // The caller's own seat survives the rejected batch.
    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 1))
}

func TestCancelWindowBoundary(t *testing.T) {
    e, w, _ := newTestEngine(t, 3)

    _, err := e.Reserve(context.Background(), testScreeningID, []uint64{1, 2}, 42)
    require.NoError(t, err)

    w.mu.Lock()
    startsAt := w.screenings[testScreeningID].StartsAt
    w.mu.Unlock()

    // Exactly 48 hours before showtime is still allowed.
    e.now = func() time.Time { return startsAt.Add(-CancellationCutoff) }
    require.NoError(t, e.Cancel(context.Background(), testScreeningID, []uint64{1}, 42))

    // One second later the window has closed.
    e.now = func() time.Time { return startsAt.Add(-CancellationCutoff).Add(time.Second) }
    err = e.Cancel(context.Background(), testScreeningID, []uint64{2}, 42)
    assert.ErrorIs(t, err, ErrCancellationWindow)
    assert.Equal(t, model.SeatStatusBooked, w.seatStatus(t, 2))
}

func TestCancelRegistryLedgerMismatch(t *testing.T) {
    e, w, _ := newTestEngine(t, 3)

    // A booked seat with no ledger row cannot be attributed to anyone.
    w.mu.Lock()
    s := w.seats[1]
    s.Status = model.SeatStatusBooked
    w.seats[1] = s
    w.mu.Unlock()

    err := e.Cancel(context.Background(), testScreeningID, []uint64{1}, 42)
    assert.ErrorIs(t, err, ErrInternal)
}

func TestDedupePreservesOrder(t *testing.T) {
    assert.Equal(t, []uint64{3, 1, 2}, dedupe([]uint64{3, 1, 3, 0, 2, 1}))
    assert.Empty(t, dedupe([]uint64{0, 0}))
    assert.Empty(t, dedupe(nil))
}
