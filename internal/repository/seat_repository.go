package repository // repository defines data access for the seat registry

import (
    "context"      // context allows query cancellation and timeouts
    "database/sql" // sql provides DB primitives
    "strings"      // strings builds IN clause placeholders

    "github.com/cinegate/screening-reservation/internal/model"
)

// SeatRepo provides access to the seats table, the per-screening seat
// registry.  Seats are created in bulk when a screening is created by
// the admin tooling and are never deleted while the screening exists.
// Status is the only column the reservation engine mutates, and it does
// so exclusively through the Tx methods inside its serialized commit
// section.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
    return &SeatRepo{db: db}
}

// ListByScreening retrieves all seats of a screening ordered by
// row_label then seat_number for stable display and deterministic
// grouping by row.  It reads outside the engine's exclusive section, so
// callers may observe a slightly stale view; the broadcaster corrects
// clients asynchronously.
func (r *SeatRepo) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Seat, error) {
    return scanSeats(r.db.QueryContext(ctx, seatListQuery, screeningID))
}

// ListByScreeningTx is the transactional variant used by the
// reservation engine to observe the authoritative seat state within its
// commit section.  A nil tx falls back to the pooled connection.
func (r *SeatRepo) ListByScreeningTx(ctx context.Context, tx *sql.Tx, screeningID uint64) ([]model.Seat, error) {
    if tx == nil {
        return r.ListByScreening(ctx, screeningID)
    }
    return scanSeats(tx.QueryContext(ctx, seatListQuery, screeningID))
}

// BulkUpdateStatusTx flips the status of the given seats within a
// screening in one statement.  The engine calls it with FREE->BOOKED on
// reserve and BOOKED->FREE on cancel, always inside the transaction
// that also writes the ledger.  Passing an empty slice has no effect.
func (r *SeatRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64, status string) error {
    if len(seatIDs) == 0 {
        return nil
    }
    placeholders := make([]string, 0, len(seatIDs))
    args := make([]interface{}, 0, len(seatIDs)+2)
    args = append(args, status, screeningID)
    for _, id := range seatIDs {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    query := `UPDATE seats SET status = ?, updated_at = CURRENT_TIMESTAMP
              WHERE screening_id = ? AND id IN (` + strings.Join(placeholders, ",") + `)`
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

const seatListQuery = `SELECT id, screening_id, row_label, seat_number, status, created_at, updated_at
                       FROM seats
                       WHERE screening_id = ?
                       ORDER BY row_label, seat_number`

func scanSeats(rows *sql.Rows, err error) ([]model.Seat, error) {
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(
            &s.ID, &s.ScreeningID, &s.RowLabel, &s.SeatNumber, &s.Status,
            &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}
