package model

import (
    "time"

    "github.com/google/uuid"
)

// Booking statuses.  A booking is created PENDING, becomes CONFIRMED
// when an admin approves it, and CANCELLED when the buyer or an admin
// cancels it.  CANCELLED is terminal; cancelling again is a no-op.
const (
    BookingPending   = "PENDING"
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
)

// Booking groups one or more seats of a single event bought together.
// Reference is the customer-facing identifier printed on tickets.
// PaymentRef/PaymentMethod/PaymentStatus record what the payment
// gateway reported; TicketSent records whether ticket delivery has
// been handed to the delivery pipeline after confirmation.
//
// Fields:
//  ID               – primary key identifier.
//  Reference        – unique customer-facing reference ("BK-...").
//  UserID           – buyer.
//  EventID          – event the seats belong to.
//  TotalAmountCents – sum of the seat prices in cents.
//  Status           – PENDING, CONFIRMED or CANCELLED.
//  PaymentRef       – gateway payment/order identifier.
//  PaymentMethod    – e.g. GATEWAY or DEMO.
//  PaymentStatus    – what the gateway reported (e.g. COMPLETED).
//  ContactName      – name for the ticket.
//  ContactEmail     – address the ticket is delivered to.
//  TicketSent       – whether delivery was handed off successfully.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
    ID               uint64    `json:"id"`
    Reference        string    `json:"reference"`
    UserID           uint64    `json:"user_id"`
    EventID          uint64    `json:"event_id"`
    TotalAmountCents uint64    `json:"total_amount_cents"`
    Status           string    `json:"status"`
    PaymentRef       string    `json:"payment_ref,omitempty"`
    PaymentMethod    string    `json:"payment_method,omitempty"`
    PaymentStatus    string    `json:"payment_status,omitempty"`
    ContactName      string    `json:"contact_name,omitempty"`
    ContactEmail     string    `json:"contact_email,omitempty"`
    TicketSent       bool      `json:"ticket_sent"`
    CreatedAt        time.Time `json:"created_at"`
    UpdatedAt        time.Time `json:"updated_at"`
}

// BookingSeat links a booking to one of its seats with the price the
// seat was sold at (events can be repriced later).  SeatLabel is a
// snapshot taken at booking time: a layout replacement nulls the seat
// link of cancelled bookings, and the label is what keeps their history
// readable afterwards.
type BookingSeat struct {
    ID         uint64 `json:"id"`
    BookingID  uint64 `json:"booking_id"`
    SeatID     uint64 `json:"seat_id"`
    SeatLabel  string `json:"seat_label"`
    PriceCents uint32 `json:"price_cents"`
}

// NewBookingReference returns a fresh customer-facing booking
// reference.  UUIDs keep references collision-free across instances
// without coordinating through the database.
func NewBookingReference() string {
    return "BK-" + uuid.NewString()
}
