package repository // repository defines data access for events

import (
    "context"      // context allows query cancellation and timeouts
    "database/sql" // sql provides DB primitives
    "errors"       // errors for sentinel comparisons

    "github.com/tickethub/tickethub/internal/model"
)

// EventRepo provides methods to work with events in the database.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
    return &EventRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions
// that span events, seats and bookings.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, title, description, venue, starts_at, price_cents,
           seat_rows, seats_per_row, total_seats, booked_seats, status,
           image_url, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
    var (
        e    model.Event
        desc sql.NullString
        img  sql.NullString
    )
    err := row.Scan(&e.ID, &e.Title, &desc, &e.Venue, &e.StartsAt, &e.PriceCents,
        &e.SeatRows, &e.SeatsPerRow, &e.TotalSeats, &e.BookedSeats, &e.Status,
        &img, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    e.Description = desc.String
    e.ImageURL = img.String
    return &e, nil
}

// CreateTx inserts an event inside an existing transaction. On success
// the event's ID is populated.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Event) error {
    const q = `INSERT INTO events (title, description, venue, starts_at, price_cents,
                                   seat_rows, seats_per_row, total_seats, status, image_url)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, e.Title, e.Description, e.Venue, e.StartsAt,
        e.PriceCents, e.SeatRows, e.SeatsPerRow, e.TotalSeats, e.Status, e.ImageURL)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// GetByID retrieves an event by its id.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
    e, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEventNotFound
        }
        return nil, err
    }
    return e, nil
}

// GetByIDTx retrieves an event inside a transaction without taking a
// lock. Reserve reads the price and status through this so both are
// consistent with the seat update that commits alongside them.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
    const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
    e, err := scanEvent(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEventNotFound
        }
        return nil, err
    }
    return e, nil
}

// GetByIDForUpdateTx loads an event with a row lock. Operations that
// rewrite the seat set (materialization, layout edits, deletes) take
// this lock first so they serialize per event.
func (r *EventRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
    const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
    e, err := scanEvent(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEventNotFound
        }
        return nil, err
    }
    return e, nil
}

// List returns events ordered by start time. When activeOnly is true,
// INACTIVE events are filtered out (the public listing).
func (r *EventRepo) List(ctx context.Context, activeOnly bool) ([]model.Event, error) {
    q := `SELECT ` + eventColumns + ` FROM events`
    if activeOnly {
        q += ` WHERE status = 'ACTIVE'`
    }
    q += ` ORDER BY starts_at, id`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Event
    for rows.Next() {
        e, err := scanEvent(rows)
        if err != nil {
            return nil, err
        }
        result = append(result, *e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// UpdateMeta updates the descriptive fields of an event. Layout fields
// are deliberately excluded; those change only through the layout
// replacement path.
func (r *EventRepo) UpdateMeta(ctx context.Context, e *model.Event) error {
    const q = `UPDATE events
               SET title = ?, description = ?, venue = ?, starts_at = ?,
                   price_cents = ?, status = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.Venue, e.StartsAt,
        e.PriceCents, e.Status, e.ImageURL, e.ID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        // Could also mean "nothing changed"; verify existence before
        // reporting not found.
        if _, err := r.GetByID(ctx, e.ID); err != nil {
            return err
        }
    }
    return nil
}

// SetLayoutTx rewrites the layout dimensions of an event and resets the
// booked counter. Callers replace the seat rows in the same transaction.
func (r *EventRepo) SetLayoutTx(ctx context.Context, tx *sql.Tx, id uint64, rows, perRow, total int) error {
    const q = `UPDATE events
               SET seat_rows = ?, seats_per_row = ?, total_seats = ?, booked_seats = 0,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, rows, perRow, total, id)
    return err
}

// AddBookedTx moves the denormalized booked counter by delta inside a
// transaction. Decrements refuse to push the counter below zero; a zero
// row count there means the counter drifted from the seat rows and the
// caller should recount.
func (r *EventRepo) AddBookedTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
    const q = `UPDATE events
               SET booked_seats = booked_seats + ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND booked_seats + ? >= 0`
    res, err := tx.ExecContext(ctx, q, delta, id, delta)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// RecountBookedTx rebuilds booked_seats from the seat rows themselves.
// Used to self-heal when AddBookedTx detects drift.
func (r *EventRepo) RecountBookedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE events
               SET booked_seats = (SELECT COUNT(*) FROM seats WHERE event_id = ? AND status = 'BOOKED'),
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id, id)
    return err
}

// DeleteTx removes an event. Seat rows and the remaining (cancelled)
// bookings follow through the FK cascades.
func (r *EventRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `DELETE FROM events WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrEventNotFound
    }
    return nil
}
