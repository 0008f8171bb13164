package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/cinegate/screening-reservation/internal/model"
)

// BookingRepo is the booking ledger: the durable record of which user
// holds which seat for which screening.  Bookings group together one or
// more seats claimed in a single commit; booking_seats rows track
// ownership at seat granularity so cancellation can act on arbitrary
// seat-id subsets.  All mutating methods run inside the reservation
// engine's transaction and exclusive section; the ledger is never
// written independently.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID and creation timestamp on
// the provided record.  The caller must commit or roll back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings (user_id, screening_id, status) VALUES (?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, b.UserID, b.ScreeningID, b.Status)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    // Query back the row to populate the DB-assigned timestamp.
    const sel = `SELECT created_at FROM bookings WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt)
}

// AddSeatsTx inserts booking_seats rows for every seat claimed under a
// booking in a single statement.  Passing an empty slice has no effect.
func (r *BookingRepo) AddSeatsTx(ctx context.Context, tx *sql.Tx, bookingID, screeningID uint64, seatIDs []uint64) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `INSERT INTO booking_seats (booking_id, screening_id, seat_id) VALUES `
    args := make([]interface{}, 0, len(seatIDs)*3)
    for i, sid := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, bookingID, screeningID, sid)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ActiveSeatOwnersTx returns a mapping from seat id to the user id that
// currently owns it through an active booking for the screening.  The
// engine uses it inside its exclusive section to verify cancellation
// ownership per seat id rather than trusting client-supplied sets.
func (r *BookingRepo) ActiveSeatOwnersTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (map[uint64]uint64, error) {
    const q = `SELECT bs.seat_id, b.user_id
               FROM booking_seats bs
               JOIN bookings b ON b.id = bs.booking_id
               WHERE bs.screening_id = ? AND b.status = ?`
    rows, err := tx.QueryContext(ctx, q, screeningID, model.BookingStatusActive)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    owners := make(map[uint64]uint64)
    for rows.Next() {
        var seatID, userID uint64
        if err := rows.Scan(&seatID, &userID); err != nil {
            return nil, err
        }
        owners[seatID] = userID
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return owners, nil
}

// RemoveSeatsTx deletes booking_seats rows for the named seats within a
// screening and returns the distinct booking ids the seats were removed
// from.  Callers should follow up with VoidEmptyTx so that bookings
// whose last seat was removed flip to CANCELLED.
func (r *BookingRepo) RemoveSeatsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64) ([]uint64, error) {
    if len(seatIDs) == 0 {
        return nil, nil
    }
    placeholders := make([]string, 0, len(seatIDs))
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, screeningID)
    for _, id := range seatIDs {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    in := strings.Join(placeholders, ",")

    // Collect the affected booking ids before deleting the rows.
    sel := `SELECT DISTINCT booking_id FROM booking_seats
            WHERE screening_id = ? AND seat_id IN (` + in + `)`
    rows, err := tx.QueryContext(ctx, sel, args...)
    if err != nil {
        return nil, err
    }
    var bookingIDs []uint64
    for rows.Next() {
        var id uint64
        if scanErr := rows.Scan(&id); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        bookingIDs = append(bookingIDs, id)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, err
    }
    rows.Close()

    del := `DELETE FROM booking_seats
            WHERE screening_id = ? AND seat_id IN (` + in + `)`
    if _, err := tx.ExecContext(ctx, del, args...); err != nil {
        return nil, err
    }
    return bookingIDs, nil
}

// VoidEmptyTx marks the given bookings as CANCELLED when they no longer
// reference any seats.  Bookings that still hold seats are untouched, so
// partial cancellation keeps the booking ACTIVE with its remaining
// seats.
func (r *BookingRepo) VoidEmptyTx(ctx context.Context, tx *sql.Tx, bookingIDs []uint64) error {
    if len(bookingIDs) == 0 {
        return nil
    }
    placeholders := make([]string, 0, len(bookingIDs))
    args := make([]interface{}, 0, len(bookingIDs)+1)
    args = append(args, model.BookingStatusCancelled)
    for _, id := range bookingIDs {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    query := `UPDATE bookings SET status = ?
              WHERE id IN (` + strings.Join(placeholders, ",") + `)
              AND NOT EXISTS (SELECT 1 FROM booking_seats bs WHERE bs.booking_id = bookings.id)`
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// BookingDetail groups a user's seats for one screening together with
// movie and theater display data, mirroring what the booking list page
// renders: one card per screening with all seat labels.
type BookingDetail struct {
    ScreeningID     uint64   `json:"screening_id"`
    MovieTitle      string   `json:"movie_title"`
    PosterURL       *string  `json:"poster_url,omitempty"`
    TheaterName     string   `json:"theater_name"`
    TheaterLocation string   `json:"theater_location"`
    StartTime       string   `json:"start_time"`
    SeatIDs         []uint64 `json:"seat_ids"`
    Seats           []string `json:"seats"`
}

// ListByUser returns the caller's active bookings grouped by screening,
// ordered by screening start time ascending and, within one screening,
// by row label then seat number.  Cancelled bookings and seats removed
// by partial cancellation do not appear.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
    const q = `SELECT sc.id, m.title, m.poster_url, t.name, t.location, sc.starts_at,
                      se.id, se.row_label, se.seat_number
               FROM booking_seats bs
               JOIN bookings b ON b.id = bs.booking_id
               JOIN screenings sc ON sc.id = bs.screening_id
               JOIN movies m ON m.id = sc.movie_id
               JOIN theaters t ON t.id = sc.theater_id
               JOIN seats se ON se.id = bs.seat_id
               WHERE b.user_id = ? AND b.status = ?
               ORDER BY sc.starts_at, sc.id, se.row_label, se.seat_number`
    rows, err := r.db.QueryContext(ctx, q, userID, model.BookingStatusActive)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    details := make([]BookingDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var screeningID uint64
        var title string
        var poster sql.NullString
        var theaterName, theaterLocation string
        var startsAt sql.NullTime
        var seat model.Seat
        if err := rows.Scan(
            &screeningID, &title, &poster, &theaterName, &theaterLocation, &startsAt,
            &seat.ID, &seat.RowLabel, &seat.SeatNumber,
        ); err != nil {
            return nil, err
        }
        idx, ok := index[screeningID]
        if !ok {
            d := BookingDetail{
                ScreeningID:     screeningID,
                MovieTitle:      title,
                TheaterName:     theaterName,
                TheaterLocation: theaterLocation,
                SeatIDs:         []uint64{},
                Seats:           []string{},
            }
            if poster.Valid {
                p := poster.String
                d.PosterURL = &p
            }
            if startsAt.Valid {
                d.StartTime = startsAt.Time.UTC().Format(time.RFC3339)
            }
            idx = len(details)
            index[screeningID] = idx
            details = append(details, d)
        }
        details[idx].SeatIDs = append(details[idx].SeatIDs, seat.ID)
        details[idx].Seats = append(details[idx].Seats, seat.Label())
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}
