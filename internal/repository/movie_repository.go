package repository // repository defines data access for catalog records

import (
    "context"      // context allows query cancellation and timeouts
    "database/sql" // sql provides DB primitives
    "errors"       // errors for sentinel comparisons
    "time"         // time for timestamp columns

    "github.com/cinegate/screening-reservation/internal/model"
)

// MovieRepo provides read access to the movies table.  Movies are
// written by the external catalog service; this repository only reads
// them for browsing and for booking display data.
type MovieRepo struct {
    db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
    return &MovieRepo{db: db}
}

// List returns all movies ordered by title for stable display.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
    const q = `SELECT id, title, poster_url, created_at
               FROM movies
               ORDER BY title`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    result := make([]model.Movie, 0)
    for rows.Next() {
        var m model.Movie
        var poster sql.NullString
        var created time.Time
        if err := rows.Scan(&m.ID, &m.Title, &poster, &created); err != nil {
            return nil, err
        }
        if poster.Valid {
            p := poster.String
            m.PosterURL = &p
        }
        m.CreatedAt = created
        result = append(result, m)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// GetByID retrieves a movie by its id.  ErrMovieNotFound is returned
// when no row exists.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
    const q = `SELECT id, title, poster_url, created_at FROM movies WHERE id = ?`
    var m model.Movie
    var poster sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &poster, &m.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrMovieNotFound
        }
        return nil, err
    }
    if poster.Valid {
        p := poster.String
        m.PosterURL = &p
    }
    return &m, nil
}
