package model

import "time"

// Theater represents a venue where screenings take place.  Like movies,
// theaters are maintained by the external catalog service and are
// read-only inputs to the reservation core.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the theater.
//  Location  – human readable address or area.
//  CreatedAt – timestamp when the theater was created.
type Theater struct {
    ID        uint64    // theaters.id
    Name      string    // theaters.name
    Location  string    // theaters.location
    CreatedAt time.Time // theaters.created_at
}
