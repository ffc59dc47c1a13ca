// Package service implements the booking lifecycle on top of the
// repositories. All multi-record mutations run in explicit
// transactions; the conditional seat update inside Reserve is the
// serialization point that makes reservations all-or-nothing without a
// separate check step.
package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/notifier"
    "github.com/tickethub/tickethub/internal/queue"
    "github.com/tickethub/tickethub/internal/repository"
)

// ErrInvalid is wrapped by request-shape failures the service detects
// itself (empty seat list, unknown seat ids, inactive event). Handlers
// map the family to HTTP 400.
var ErrInvalid = errors.New("invalid request")

// BookingService orchestrates events, seats and bookings. It owns the
// transactions that keep the seat statuses, the booking rows and the
// per-event booked counter consistent with each other.
type BookingService struct {
    db        *sql.DB
    events    *repository.EventRepo
    seats     *repository.SeatRepo
    bookings  *repository.BookingRepo
    hub       *notifier.Hub
    perRowMax int
}

// NewBookingService constructs a BookingService. All repository
// dependencies must be non-nil; hub may be nil to disable notifications.
func NewBookingService(db *sql.DB, events *repository.EventRepo, seats *repository.SeatRepo,
    bookings *repository.BookingRepo, hub *notifier.Hub, perRowMax int) *BookingService {
    if db == nil || events == nil || seats == nil || bookings == nil {
        panic("nil dependency passed to NewBookingService")
    }
    if perRowMax < 1 {
        perRowMax = 20
    }
    return &BookingService{
        db:        db,
        events:    events,
        seats:     seats,
        bookings:  bookings,
        hub:       hub,
        perRowMax: perRowMax,
    }
}

// ReserveInput carries everything needed to book seats in one call.
// Payment fields record what the gateway (or the demo flow) reported;
// the service itself never talks to a gateway.
type ReserveInput struct {
    EventID       uint64
    SeatIDs       []uint64
    UserID        uint64
    ContactName   string
    ContactEmail  string
    PaymentRef    string
    PaymentMethod string
    PaymentStatus string
}

// Reserve books the requested seats of an event for one user. It is
// all-or-nothing: either every requested seat flips from AVAILABLE to
// BOOKED and a PENDING booking covering exactly those seats is created,
// or nothing observable changes and ErrSeatUnavailable is returned.
func (s *BookingService) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, []string, error) {
    seatIDs := dedupe(in.SeatIDs)
    if len(seatIDs) == 0 {
        return nil, nil, fmt.Errorf("%w: seat_ids is required", ErrInvalid)
    }
    if in.UserID == 0 {
        return nil, nil, fmt.Errorf("%w: missing user", ErrInvalid)
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Read the event inside the transaction so the status check and the
    // price the booking is charged at are consistent with the seat
    // update that commits with them. A plain read is enough; the seat
    // update below is the serialization point.
    ev, err := s.events.GetByIDTx(ctx, tx, in.EventID)
    if err != nil {
        return nil, nil, err
    }
    if ev.Status != model.EventActive {
        return nil, nil, fmt.Errorf("%w: event is not open for booking", ErrInvalid)
    }

    // Resolve the seats inside the transaction so labels are consistent
    // with what gets booked. Ids that do not belong to this event
    // simply come back missing.
    requested, err := s.seats.GetForEventTx(ctx, tx, in.EventID, seatIDs)
    if err != nil {
        return nil, nil, err
    }
    if len(requested) != len(seatIDs) {
        return nil, nil, fmt.Errorf("%w: unknown seat ids for this event", ErrInvalid)
    }

    // The conditional update is the only availability check. RowsAffected
    // short of the request size means somebody else got there first.
    affected, err := s.seats.ReserveTx(ctx, tx, in.EventID, seatIDs, in.UserID)
    if err != nil {
        return nil, nil, err
    }
    if affected != int64(len(seatIDs)) {
        return nil, nil, repository.ErrSeatUnavailable
    }

    if err := s.addBooked(ctx, tx, in.EventID, len(seatIDs)); err != nil {
        return nil, nil, err
    }

    booking := &model.Booking{
        Reference:        model.NewBookingReference(),
        UserID:           in.UserID,
        EventID:          in.EventID,
        TotalAmountCents: uint64(len(seatIDs)) * uint64(ev.PriceCents),
        Status:           model.BookingPending,
        PaymentRef:       in.PaymentRef,
        PaymentMethod:    in.PaymentMethod,
        PaymentStatus:    in.PaymentStatus,
        ContactName:      in.ContactName,
        ContactEmail:     in.ContactEmail,
    }
    links := make([]model.BookingSeat, 0, len(requested))
    labels := make([]string, 0, len(requested))
    for _, seat := range requested {
        links = append(links, model.BookingSeat{SeatID: seat.ID, SeatLabel: seat.Label(), PriceCents: ev.PriceCents})
        labels = append(labels, seat.Label())
    }
    if err := s.bookings.CreateTx(ctx, tx, booking, links); err != nil {
        return nil, nil, err
    }

    if err := tx.Commit(); err != nil {
        return nil, nil, err
    }
    committed = true

    s.notify(ctx, notifier.SeatChange{EventID: in.EventID, SeatIDs: seatIDs, Status: model.SeatBooked})
    return booking, labels, nil
}

// Cancel releases the seats of a booking and marks it CANCELLED. Only
// the owner or an admin may cancel. Cancelling an already CANCELLED
// booking is a no-op that reports success, so retried cancel requests
// cannot double-release seats or drive the booked counter negative.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID uint64, admin bool) (*model.Booking, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, err := s.bookings.GetByIDForUpdateTx(ctx, tx, bookingID)
    if err != nil {
        return nil, err
    }
    if !admin && b.UserID != requesterID {
        return nil, repository.ErrForbidden
    }
    if b.Status == model.BookingCancelled {
        // Idempotent: nothing left to release.
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        return b, nil
    }

    seatIDs, err := s.bookings.SeatIDsTx(ctx, tx, bookingID)
    if err != nil {
        return nil, err
    }
    released, err := s.seats.ReleaseByBookingTx(ctx, tx, bookingID)
    if err != nil {
        return nil, err
    }
    if released > 0 {
        if err := s.addBooked(ctx, tx, b.EventID, -int(released)); err != nil {
            return nil, err
        }
    }
    if err := s.bookings.UpdateStatusTx(ctx, tx, bookingID, model.BookingCancelled); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    b.Status = model.BookingCancelled
    if released > 0 {
        s.notify(ctx, notifier.SeatChange{EventID: b.EventID, SeatIDs: seatIDs, Status: model.SeatAvailable})
    }
    return b, nil
}

// ApproveAndDeliver confirms a PENDING booking and hands the ticket to
// the delivery queue. Confirmation commits first; a delivery failure is
// recorded on the booking (ticket_sent=false) and reported to the
// caller, but it never rolls the confirmation back. Approving an
// already CONFIRMED booking re-sends the ticket.
func (s *BookingService) ApproveAndDeliver(ctx context.Context, bookingID uint64) (*model.Booking, bool, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    b, err := s.bookings.GetByIDForUpdateTx(ctx, tx, bookingID)
    if err != nil {
        return nil, false, err
    }
    if b.Status == model.BookingCancelled {
        return nil, false, fmt.Errorf("%w: booking is cancelled", repository.ErrConflict)
    }
    labels, err := s.bookings.SeatLabelsTx(ctx, tx, bookingID)
    if err != nil {
        return nil, false, err
    }
    if b.Status != model.BookingConfirmed {
        if err := s.bookings.UpdateStatusTx(ctx, tx, bookingID, model.BookingConfirmed); err != nil {
            return nil, false, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, false, err
    }
    committed = true
    b.Status = model.BookingConfirmed

    ev, err := s.events.GetByID(ctx, b.EventID)
    if err != nil {
        // Booking is confirmed either way; deliver with what we have.
        log.Printf("booking-service: load event %d for ticket failed: %v", b.EventID, err)
        ev = &model.Event{ID: b.EventID}
    }

    delivered := s.deliverTicket(ctx, b, ev, labels)
    if err := s.bookings.SetTicketSent(ctx, bookingID, delivered); err != nil {
        log.Printf("booking-service: record ticket_sent for booking %d failed: %v", bookingID, err)
    }
    b.TicketSent = delivered
    return b, delivered, nil
}

func (s *BookingService) deliverTicket(ctx context.Context, b *model.Booking, ev *model.Event, labels []string) bool {
    event := queue.BookingConfirmedEvent{
        BookingID:        b.ID,
        Reference:        b.Reference,
        UserID:           b.UserID,
        EventID:          ev.ID,
        EventTitle:       ev.Title,
        Venue:            ev.Venue,
        StartsAt:         ev.StartsAt.UTC().Format(time.RFC3339),
        SeatLabels:       labels,
        TotalAmountCents: b.TotalAmountCents,
        ContactName:      b.ContactName,
        ContactEmail:     b.ContactEmail,
        ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
    }
    if err := queue.PublishBookingConfirmed(ctx, event); err != nil {
        log.Printf("booking-service: ticket hand-off for booking %d failed: %v", b.ID, err)
        return false
    }
    return true
}

// MyBookings lists the bookings of one user, newest first.
func (s *BookingService) MyBookings(ctx context.Context, userID uint64) ([]repository.BookingSummary, error) {
    return s.bookings.ListByUser(ctx, userID)
}

// AllBookings lists every booking, newest first. Admin view.
func (s *BookingService) AllBookings(ctx context.Context) ([]repository.BookingSummary, error) {
    return s.bookings.ListAll(ctx)
}

// DashboardStats aggregates the admin dashboard totals.
func (s *BookingService) DashboardStats(ctx context.Context) (repository.Stats, error) {
    return s.bookings.Stats(ctx)
}

// addBooked moves the booked counter and self-heals when it has
// drifted from the seat rows: the counter is recounted from the seats
// inside the same transaction instead of failing the request.
func (s *BookingService) addBooked(ctx context.Context, tx *sql.Tx, eventID uint64, delta int) error {
    err := s.events.AddBookedTx(ctx, tx, eventID, delta)
    if err == nil {
        return nil
    }
    if !errors.Is(err, sql.ErrNoRows) {
        return err
    }
    log.Printf("booking-service: booked counter drift on event %d, recounting", eventID)
    return s.events.RecountBookedTx(ctx, tx, eventID)
}

// notify publishes fire-and-forget; a nil hub disables notifications.
func (s *BookingService) notify(ctx context.Context, ev notifier.SeatChange) {
    if s.hub == nil {
        return
    }
    s.hub.Publish(ctx, ev)
}

// dedupe drops zero and duplicate ids while preserving order.
func dedupe(ids []uint64) []uint64 {
    unique := make([]uint64, 0, len(ids))
    seen := make(map[uint64]struct{}, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; !ok {
            seen[id] = struct{}{}
            unique = append(unique, id)
        }
    }
    return unique
}
