package model

import "time"

// Event statuses.  INACTIVE events stay in the database but are hidden
// from public listings and cannot accept new bookings.
const (
    EventActive   = "ACTIVE"
    EventInactive = "INACTIVE"
)

// Event represents a ticketed event with a rectangular seat grid.
// SeatRows and SeatsPerRow describe the layout; TotalSeats is always
// SeatRows*SeatsPerRow.  BookedSeats is a denormalized counter that is
// updated in the same transaction as every seat status transition, so
// it matches the number of BOOKED seats at every commit point.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display name of the event.
//  Description – optional long description.
//  Venue       – venue name shown to buyers.
//  StartsAt    – scheduled start time (UTC).
//  PriceCents  – per-seat price in cents.
//  SeatRows    – number of rows in the layout (1..26).
//  SeatsPerRow – seats in each row.
//  TotalSeats  – SeatRows * SeatsPerRow.
//  BookedSeats – count of seats currently in status BOOKED.
//  Status      – ACTIVE or INACTIVE.
//  ImageURL    – optional poster image.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64    `json:"id"`
    Title       string    `json:"title"`
    Description string    `json:"description,omitempty"`
    Venue       string    `json:"venue"`
    StartsAt    time.Time `json:"starts_at"`
    PriceCents  uint32    `json:"price_cents"`
    SeatRows    int       `json:"seat_rows"`
    SeatsPerRow int       `json:"seats_per_row"`
    TotalSeats  int       `json:"total_seats"`
    BookedSeats int       `json:"booked_seats"`
    Status      string    `json:"status"`
    ImageURL    string    `json:"image_url,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}
