package model

import "time"

// Screening represents a single showing of a movie at a theater at a
// fixed start time.  Screenings are immutable once created; their seat
// layout is generated at creation time by the admin tooling and never
// changes afterwards.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – movie being shown.
//  TheaterID – theater hosting the showing.
//  StartsAt  – when the showing begins (UTC).
//  CreatedAt – timestamp when the screening was created.
type Screening struct {
    ID        uint64    // screenings.id
    MovieID   uint64    // screenings.movie_id
    TheaterID uint64    // screenings.theater_id
    StartsAt  time.Time // screenings.starts_at
    CreatedAt time.Time // screenings.created_at
}
