package model

import "time"

// Movie represents a film that can be scheduled for screenings.  Movie
// records are produced by the external catalog service; this core only
// reads them for display alongside screenings and bookings.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – display title of the movie.
//  PosterURL – optional poster image path served by the upload service.
//  CreatedAt – timestamp when the movie was created.
type Movie struct {
    ID        uint64    // movies.id
    Title     string    // movies.title
    PosterURL *string   // movies.poster_url (nullable)
    CreatedAt time.Time // movies.created_at
}
