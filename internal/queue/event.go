// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when an admin confirms a booking.
// It carries everything the ticket delivery pipeline needs to render
// and send the ticket without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID        uint64   `json:"booking_id"`
    Reference        string   `json:"reference"`
    UserID           uint64   `json:"user_id"`
    EventID          uint64   `json:"event_id"`
    EventTitle       string   `json:"event_title"`
    Venue            string   `json:"venue"`
    StartsAt         string   `json:"starts_at"`
    SeatLabels       []string `json:"seats"`
    TotalAmountCents uint64   `json:"total_amount_cents"`
    ContactName      string   `json:"contact_name"`
    ContactEmail     string   `json:"contact_email"`
    ConfirmedAt      string   `json:"confirmed_at"`
}
