package model

import (
    "fmt"
    "time"
)

// Seat statuses.  BLOCKED seats are taken out of sale by an admin and
// are never touched by the booking lifecycle.
const (
    SeatAvailable = "AVAILABLE"
    SeatBooked    = "BOOKED"
    SeatBlocked   = "BLOCKED"
)

// Seat describes one sellable seat of an event.  Seats are uniquely
// identified by their event, row label and seat number; the database
// enforces this with a compound unique key, so a seat identity can
// never be created twice even under concurrent materialization.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event to which this seat belongs.
//  RowLabel   – letter designating the row (A..Z).
//  SeatNumber – number of the seat within the row (1-based).
//  Status     – AVAILABLE, BOOKED or BLOCKED.
//  BookedBy   – user holding the seat while BOOKED (nil otherwise).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
    ID         uint64    `json:"id"`
    EventID    uint64    `json:"event_id"`
    RowLabel   string    `json:"row_label"`
    SeatNumber uint32    `json:"seat_number"`
    Status     string    `json:"status"`
    BookedBy   *uint64   `json:"booked_by,omitempty"`
    CreatedAt  time.Time `json:"created_at"`
    UpdatedAt  time.Time `json:"updated_at"`
}

// Label renders the human-readable seat name, e.g. "A1" or "J10".
func (s Seat) Label() string {
    return fmt.Sprintf("%s%d", s.RowLabel, s.SeatNumber)
}
