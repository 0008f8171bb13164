package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/cinegate/screening-reservation/internal/model"
)

// ScreeningRepo provides read access to the screenings table.  Screening
// records are created by the external catalog service together with
// their seat layout; the reservation core treats them as immutable.
type ScreeningRepo struct {
    db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

// GetByID retrieves a screening by its id.  ErrScreeningNotFound is
// returned when no row exists.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
    const q = `SELECT id, movie_id, theater_id, starts_at, created_at
               FROM screenings WHERE id = ?`
    var s model.Screening
    err := r.db.QueryRowContext(ctx, q, id).
        Scan(&s.ID, &s.MovieID, &s.TheaterID, &s.StartsAt, &s.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrScreeningNotFound
        }
        return nil, err
    }
    return &s, nil
}

// GetByIDTx is like GetByID but runs inside an existing transaction so
// the reservation engine can read the screening within its exclusive
// commit section.  A nil tx falls back to the pooled connection.
func (r *ScreeningRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Screening, error) {
    const q = `SELECT id, movie_id, theater_id, starts_at, created_at
               FROM screenings WHERE id = ?`
    row := r.db.QueryRowContext
    if tx != nil {
        row = tx.QueryRowContext
    }
    var s model.Screening
    err := row(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.TheaterID, &s.StartsAt, &s.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrScreeningNotFound
        }
        return nil, err
    }
    return &s, nil
}

// ScreeningDetail combines a screening with its movie and theater
// display data for the browse endpoints.
type ScreeningDetail struct {
    ID              uint64  `json:"id"`
    MovieID         uint64  `json:"movie_id"`
    MovieTitle      string  `json:"movie_title"`
    PosterURL       *string `json:"poster_url,omitempty"`
    TheaterID       uint64  `json:"theater_id"`
    TheaterName     string  `json:"theater_name"`
    TheaterLocation string  `json:"theater_location"`
    StartsAt        string  `json:"start_time"`
}

// ListByMovie returns all screenings for a movie joined with theater
// display data, ordered by start time ascending.
func (r *ScreeningRepo) ListByMovie(ctx context.Context, movieID uint64) ([]ScreeningDetail, error) {
    const q = `SELECT sc.id, sc.movie_id, m.title, m.poster_url,
                      sc.theater_id, t.name, t.location, sc.starts_at
               FROM screenings sc
               JOIN movies m ON m.id = sc.movie_id
               JOIN theaters t ON t.id = sc.theater_id
               WHERE sc.movie_id = ?
               ORDER BY sc.starts_at`
    rows, err := r.db.QueryContext(ctx, q, movieID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    details := make([]ScreeningDetail, 0)
    for rows.Next() {
        d, err := scanScreeningDetail(rows)
        if err != nil {
            return nil, err
        }
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// GetDetail returns a single screening joined with movie and theater
// display data.  ErrScreeningNotFound is returned when no row exists.
func (r *ScreeningRepo) GetDetail(ctx context.Context, id uint64) (*ScreeningDetail, error) {
    const q = `SELECT sc.id, sc.movie_id, m.title, m.poster_url,
                      sc.theater_id, t.name, t.location, sc.starts_at
               FROM screenings sc
               JOIN movies m ON m.id = sc.movie_id
               JOIN theaters t ON t.id = sc.theater_id
               WHERE sc.id = ?`
    row := r.db.QueryRowContext(ctx, q, id)
    d, err := scanScreeningDetail(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrScreeningNotFound
        }
        return nil, err
    }
    return &d, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanScreeningDetail(row rowScanner) (ScreeningDetail, error) {
    var d ScreeningDetail
    var poster sql.NullString
    var starts sql.NullTime
    if err := row.Scan(
        &d.ID, &d.MovieID, &d.MovieTitle, &poster,
        &d.TheaterID, &d.TheaterName, &d.TheaterLocation, &starts,
    ); err != nil {
        return ScreeningDetail{}, err
    }
    if poster.Valid {
        p := poster.String
        d.PosterURL = &p
    }
    if starts.Valid {
        d.StartsAt = starts.Time.UTC().Format(time.RFC3339)
    }
    return d, nil
}
