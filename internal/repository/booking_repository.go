package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/tickethub/tickethub/internal/model"
)

// BookingRepo provides access to bookings and their seat links.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
    return &BookingRepo{db: db}
}

// DB exposes the underlying handle for cross-repo transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, reference, user_id, event_id, total_amount_cents, status,
           payment_ref, payment_method, payment_status, contact_name, contact_email,
           ticket_sent, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var (
        b                          model.Booking
        payRef, payMethod, payStat sql.NullString
        cName, cEmail              sql.NullString
    )
    err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.EventID, &b.TotalAmountCents,
        &b.Status, &payRef, &payMethod, &payStat, &cName, &cEmail,
        &b.TicketSent, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, err
    }
    b.PaymentRef = payRef.String
    b.PaymentMethod = payMethod.String
    b.PaymentStatus = payStat.String
    b.ContactName = cName.String
    b.ContactEmail = cEmail.String
    return &b, nil
}

// CreateTx inserts a booking and its seat links inside an existing
// transaction. On success the booking's ID is populated. The seat links
// are written with a single multi-value insert.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking, seats []model.BookingSeat) error {
    const q = `INSERT INTO bookings (reference, user_id, event_id, total_amount_cents, status,
                                     payment_ref, payment_method, payment_status,
                                     contact_name, contact_email)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, b.Reference, b.UserID, b.EventID, b.TotalAmountCents,
        b.Status, b.PaymentRef, b.PaymentMethod, b.PaymentStatus, b.ContactName, b.ContactEmail)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)

    if len(seats) == 0 {
        return nil
    }
    ins := `INSERT INTO booking_seats (booking_id, seat_id, seat_label, price_cents) VALUES `
    args := make([]interface{}, 0, len(seats)*4)
    for i, s := range seats {
        if i > 0 {
            ins += ","
        }
        ins += "(?, ?, ?, ?)"
        args = append(args, b.ID, s.SeatID, s.SeatLabel, s.PriceCents)
    }
    _, err = tx.ExecContext(ctx, ins, args...)
    return err
}

// GetByID retrieves a booking by its id.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBookingNotFound
        }
        return nil, err
    }
    return b, nil
}

// GetByIDForUpdateTx loads a booking with a row lock so that competing
// cancel/approve calls on the same booking serialize.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
    b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrBookingNotFound
        }
        return nil, err
    }
    return b, nil
}

// UpdateStatusTx sets the lifecycle status of a booking.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    const q = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, status, id)
    return err
}

// SetTicketSent records the outcome of a ticket delivery attempt.
// Runs outside any transaction: delivery happens after the status
// commit and must never undo it.
func (r *BookingRepo) SetTicketSent(ctx context.Context, id uint64, sent bool) error {
    const q = `UPDATE bookings SET ticket_sent = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, sent, id)
    return err
}

// CountActiveByEventTx counts non-cancelled bookings of an event inside
// a transaction. Layout replacement and event deletion refuse to run
// while this is non-zero.
func (r *BookingRepo) CountActiveByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status <> 'CANCELLED'`
    var n int
    if err := tx.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// BookingSummary is a booking joined with its event title and the
// labels of its seats, the shape listing endpoints return.
type BookingSummary struct {
    model.Booking
    EventTitle string   `json:"event_title"`
    SeatLabels []string `json:"seats"`
}

// Seat labels come from the booking_seats snapshot, not from the seats
// table, so cancelled bookings keep their labels after a layout
// replacement has deleted the seat rows they once pointed at.
const summarySelect = `SELECT b.id, b.reference, b.user_id, b.event_id, b.total_amount_cents, b.status,
           b.payment_ref, b.payment_method, b.payment_status, b.contact_name, b.contact_email,
           b.ticket_sent, b.created_at, b.updated_at, e.title,
           GROUP_CONCAT(bs.seat_label ORDER BY bs.id SEPARATOR ',')
    FROM bookings b
    JOIN events e ON e.id = b.event_id
    LEFT JOIN booking_seats bs ON bs.booking_id = b.id`

func (r *BookingRepo) listSummaries(ctx context.Context, where string, args ...interface{}) ([]BookingSummary, error) {
    q := summarySelect
    if where != "" {
        q += ` WHERE ` + where
    }
    q += ` GROUP BY b.id ORDER BY b.created_at DESC, b.id DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []BookingSummary
    for rows.Next() {
        var (
            sum                        BookingSummary
            payRef, payMethod, payStat sql.NullString
            cName, cEmail              sql.NullString
            labels                     sql.NullString
        )
        if err := rows.Scan(&sum.ID, &sum.Reference, &sum.UserID, &sum.EventID,
            &sum.TotalAmountCents, &sum.Status, &payRef, &payMethod, &payStat,
            &cName, &cEmail, &sum.TicketSent, &sum.CreatedAt, &sum.UpdatedAt,
            &sum.EventTitle, &labels); err != nil {
            return nil, err
        }
        sum.PaymentRef = payRef.String
        sum.PaymentMethod = payMethod.String
        sum.PaymentStatus = payStat.String
        sum.ContactName = cName.String
        sum.ContactEmail = cEmail.String
        if labels.Valid && labels.String != "" {
            sum.SeatLabels = strings.Split(labels.String, ",")
        }
        result = append(result, sum)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// ListByUser returns the bookings of one user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingSummary, error) {
    return r.listSummaries(ctx, "b.user_id = ?", userID)
}

// ListAll returns every booking, newest first. Admin listing.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingSummary, error) {
    return r.listSummaries(ctx, "")
}

// SeatIDsTx returns the seat ids linked to one booking, inside a
// transaction. Links whose seat row was deleted by a layout
// replacement carry a NULL seat_id and are skipped.
func (r *BookingRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error) {
    const q = `SELECT seat_id FROM booking_seats WHERE booking_id = ? AND seat_id IS NOT NULL ORDER BY seat_id`
    rows, err := tx.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// SeatLabelsTx returns the seat labels of one booking in the order the
// seats were booked, inside a transaction. Reads the snapshot, so it
// works even after the underlying seat rows are gone.
func (r *BookingRepo) SeatLabelsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]string, error) {
    const q = `SELECT seat_label FROM booking_seats WHERE booking_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var labels []string
    for rows.Next() {
        var l string
        if err := rows.Scan(&l); err != nil {
            return nil, err
        }
        labels = append(labels, l)
    }
    return labels, rows.Err()
}

// Stats aggregates the numbers shown on the admin dashboard.
type Stats struct {
    TotalEvents       int    `json:"total_events"`
    TotalBookings     int    `json:"total_bookings"`
    ConfirmedBookings int    `json:"confirmed_bookings"`
    RevenueCents      uint64 `json:"revenue_cents"`
}

// Stats computes dashboard totals. Revenue counts confirmed bookings only.
func (r *BookingRepo) Stats(ctx context.Context) (Stats, error) {
    var st Stats
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&st.TotalEvents); err != nil {
        return st, err
    }
    const q = `SELECT COUNT(*),
                      COALESCE(SUM(status = 'CONFIRMED'), 0),
                      COALESCE(SUM(CASE WHEN status = 'CONFIRMED' THEN total_amount_cents ELSE 0 END), 0)
               FROM bookings`
    if err := r.db.QueryRowContext(ctx, q).Scan(&st.TotalBookings, &st.ConfirmedBookings, &st.RevenueCents); err != nil {
        return st, err
    }
    return st, nil
}
