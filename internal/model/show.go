package model

import "time"

// Show is a scheduled performance at a venue.  Its seats are created
// together with the show and carry their own price; BasePriceCents is
// the default applied to seats without an explicit override.  The
// number of available seats is always derived by counting AVAILABLE
// seats, never stored on the show itself.
type Show struct {
    ID             uint64
    VenueID        uint64
    Title          string
    StartsAt       time.Time
    EndsAt         time.Time
    BasePriceCents uint32
    CreatedAt      time.Time
}
