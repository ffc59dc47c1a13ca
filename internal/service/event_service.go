package service

import (
    "context"
    "fmt"
    "time"

    "github.com/tickethub/tickethub/internal/layout"
    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/notifier"
    "github.com/tickethub/tickethub/internal/repository"
)

// Default grid used when an event is created without explicit
// dimensions.
const (
    defaultRows        = 10
    defaultSeatsPerRow = 10
)

// CreateEventInput is the admin-facing shape for creating an event.
// Zero SeatRows/SeatsPerRow select the default 10x10 grid.
type CreateEventInput struct {
    Title       string
    Description string
    Venue       string
    StartsAt    time.Time
    PriceCents  uint32
    SeatRows    int
    SeatsPerRow int
    ImageURL    string
}

// CreateEvent inserts an event and materializes its full seat grid in
// one transaction, so a created event is immediately sellable.
func (s *BookingService) CreateEvent(ctx context.Context, in CreateEventInput) (*model.Event, error) {
    if in.Title == "" || in.Venue == "" {
        return nil, fmt.Errorf("%w: title and venue are required", ErrInvalid)
    }
    if in.StartsAt.IsZero() {
        return nil, fmt.Errorf("%w: starts_at is required", ErrInvalid)
    }
    rows, perRow := in.SeatRows, in.SeatsPerRow
    if rows == 0 && perRow == 0 {
        rows, perRow = defaultRows, defaultSeatsPerRow
    }
    if err := layout.Validate(rows, perRow, s.perRowMax); err != nil {
        return nil, err
    }

    ev := &model.Event{
        Title:       in.Title,
        Description: in.Description,
        Venue:       in.Venue,
        StartsAt:    in.StartsAt.UTC(),
        PriceCents:  in.PriceCents,
        SeatRows:    rows,
        SeatsPerRow: perRow,
        TotalSeats:  rows * perRow,
        Status:      model.EventActive,
        ImageURL:    in.ImageURL,
    }

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

    if err := s.events.CreateTx(ctx, tx, ev); err != nil {
        return nil, err
    }
    if err := s.seats.CreateBulkTx(ctx, tx, gridSeats(ev.ID, rows, perRow)); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return ev, nil
}

// GetEvent returns one event by id.
func (s *BookingService) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
    return s.events.GetByID(ctx, id)
}

// ListEvents returns events ordered by start time; activeOnly hides
// INACTIVE events (the public listing).
func (s *BookingService) ListEvents(ctx context.Context, activeOnly bool) ([]model.Event, error) {
    return s.events.List(ctx, activeOnly)
}

// UpdateEventInput carries the editable metadata of an event. Layout
// dimensions are changed only through EditLayout.
type UpdateEventInput struct {
    Title       string
    Description string
    Venue       string
    StartsAt    time.Time
    PriceCents  uint32
    Status      string
    ImageURL    string
}

// UpdateEvent rewrites the descriptive fields of an event.
func (s *BookingService) UpdateEvent(ctx context.Context, id uint64, in UpdateEventInput) (*model.Event, error) {
    ev, err := s.events.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if in.Title == "" || in.Venue == "" {
        return nil, fmt.Errorf("%w: title and venue are required", ErrInvalid)
    }
    if in.Status != model.EventActive && in.Status != model.EventInactive {
        return nil, fmt.Errorf("%w: status must be ACTIVE or INACTIVE", ErrInvalid)
    }
    ev.Title = in.Title
    ev.Description = in.Description
    ev.Venue = in.Venue
    if !in.StartsAt.IsZero() {
        ev.StartsAt = in.StartsAt.UTC()
    }
    ev.PriceCents = in.PriceCents
    ev.Status = in.Status
    ev.ImageURL = in.ImageURL
    if err := s.events.UpdateMeta(ctx, ev); err != nil {
        return nil, err
    }
    return ev, nil
}

// DeleteEvent removes an event, its seats and its remaining cancelled
// bookings (through the FK cascades). Refused while any non-cancelled
// booking still references the event, so paid seats can never silently
// disappear.
func (s *BookingService) DeleteEvent(ctx context.Context, id uint64) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := s.events.GetByIDForUpdateTx(ctx, tx, id); err != nil {
        return err
    }
    active, err := s.bookings.CountActiveByEventTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if active > 0 {
        return fmt.Errorf("%w: event has active bookings", repository.ErrConflict)
    }
    if err := s.events.DeleteTx(ctx, tx, id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true

    s.notify(ctx, notifier.SeatChange{EventID: id, Status: notifier.StatusLayout})
    return nil
}

// GetSeats returns the seat map of an event in display order. An event
// whose grid was never written gets it materialized on first read, so
// callers always see the full layout. Concurrent first reads are
// resolved by the storage unique key: whichever writer loses simply
// reads the rows the winner created.
func (s *BookingService) GetSeats(ctx context.Context, eventID uint64) (*model.Event, []model.Seat, error) {
    ev, err := s.events.GetByID(ctx, eventID)
    if err != nil {
        return nil, nil, err
    }
    seats, err := s.seats.GetByEvent(ctx, eventID)
    if err != nil {
        return nil, nil, err
    }
    if len(seats) > 0 {
        return ev, seats, nil
    }

    if err := s.materialize(ctx, eventID); err != nil {
        return nil, nil, err
    }
    ev, err = s.events.GetByID(ctx, eventID)
    if err != nil {
        return nil, nil, err
    }
    seats, err = s.seats.GetByEvent(ctx, eventID)
    if err != nil {
        return nil, nil, err
    }
    return ev, seats, nil
}

// materialize writes the default grid for an event that has no seat
// rows yet. The event row lock serializes materializers; the unique
// key catches anything that slips past (e.g. a writer on another
// instance committing between our check and insert), in which case the
// existing rows win and the duplicate attempt is discarded.
func (s *BookingService) materialize(ctx context.Context, eventID uint64) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    ev, err := s.events.GetByIDForUpdateTx(ctx, tx, eventID)
    if err != nil {
        return err
    }
    count, err := s.seats.CountByEventTx(ctx, tx, eventID)
    if err != nil {
        return err
    }
    if count > 0 {
        // Somebody else materialized while we waited on the lock.
        return nil
    }

    rows, perRow := ev.SeatRows, ev.SeatsPerRow
    if rows == 0 && perRow == 0 {
        rows, perRow = defaultRows, defaultSeatsPerRow
    }
    if err := layout.Validate(rows, perRow, s.perRowMax); err != nil {
        return err
    }
    if err := s.seats.CreateBulkTx(ctx, tx, gridSeats(eventID, rows, perRow)); err != nil {
        if err == repository.ErrDuplicateSeat {
            return nil
        }
        return err
    }
    if err := s.events.SetLayoutTx(ctx, tx, eventID, rows, perRow, rows*perRow); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// EditLayout atomically replaces the seat grid of an event with new
// dimensions and resets the booked counter. Refused while any
// non-cancelled booking exists, so a booking can never end up
// referencing seats that no longer exist. Cancelled bookings survive
// the replacement: the FK nulls their seat links and their labels live
// on in the booking_seats snapshot.
func (s *BookingService) EditLayout(ctx context.Context, eventID uint64, rows, perRow int) (*model.Event, error) {
    if err := layout.Validate(rows, perRow, s.perRowMax); err != nil {
        return nil, err
    }

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

    ev, err := s.events.GetByIDForUpdateTx(ctx, tx, eventID)
    if err != nil {
        return nil, err
    }
    active, err := s.bookings.CountActiveByEventTx(ctx, tx, eventID)
    if err != nil {
        return nil, err
    }
    if active > 0 {
        return nil, fmt.Errorf("%w: event has active bookings", repository.ErrConflict)
    }

    if err := s.seats.DeleteByEventTx(ctx, tx, eventID); err != nil {
        return nil, err
    }
    if err := s.seats.CreateBulkTx(ctx, tx, gridSeats(eventID, rows, perRow)); err != nil {
        return nil, err
    }
    if err := s.events.SetLayoutTx(ctx, tx, eventID, rows, perRow, rows*perRow); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    ev.SeatRows = rows
    ev.SeatsPerRow = perRow
    ev.TotalSeats = rows * perRow
    ev.BookedSeats = 0
    s.notify(ctx, notifier.SeatChange{EventID: eventID, Status: notifier.StatusLayout})
    return ev, nil
}

// SubscribeSeats exposes the notifier hub to the streaming endpoint.
// Returns nil when notifications are disabled.
func (s *BookingService) SubscribeSeats(eventID uint64) (<-chan notifier.SeatChange, func()) {
    if s.hub == nil {
        return nil, func() {}
    }
    return s.hub.Subscribe(eventID)
}

// gridSeats expands layout positions into seat rows for one event.
func gridSeats(eventID uint64, rows, perRow int) []model.Seat {
    grid := layout.Generate(rows, perRow)
    seats := make([]model.Seat, 0, len(grid))
    for _, p := range grid {
        seats = append(seats, model.Seat{
            EventID:    eventID,
            RowLabel:   p.Row,
            SeatNumber: p.Number,
            Status:     model.SeatAvailable,
        })
    }
    return seats
}
