package repository // repository defines data access for seats

import (
    "context"      // context allows query cancellation and timeouts
    "database/sql" // sql provides DB primitives
    "strings"      // strings for duplicate-key detection and IN clause building

    "github.com/tickethub/tickethub/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
    return &SeatRepo{db: db}
}

// CreateBulkTx inserts multiple seats in a single statement inside an
// existing transaction. A violation of the (event_id, row_label,
// seat_number) unique key is reported as ErrDuplicateSeat so callers
// can fall back to the seats that already exist.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO seats (event_id, row_label, seat_number, status) VALUES `
    args := make([]interface{}, 0, len(seats)*4)
    for i, seat := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        status := seat.Status
        if status == "" {
            status = model.SeatAvailable
        }
        args = append(args, seat.EventID, seat.RowLabel, seat.SeatNumber, status)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateSeat
        }
        return err
    }
    return nil
}

// GetByEvent retrieves all seats of an event ordered by row_label then
// seat_number, the order in which a venue map renders them.
func (r *SeatRepo) GetByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
    const q = `SELECT id, event_id, row_label, seat_number, status, booked_by, created_at, updated_at
               FROM seats
               WHERE event_id = ?
               ORDER BY row_label, seat_number`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(
            &s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.Status,
            &s.BookedBy, &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// CountByEventTx counts the seat rows of an event inside a transaction.
// A zero count triggers lazy materialization of the default grid.
func (r *SeatRepo) CountByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM seats WHERE event_id = ?`
    var n int
    if err := tx.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// GetForEventTx loads the requested seats of one event inside a
// transaction. Seats belonging to other events are silently absent from
// the result, which callers use to reject cross-event seat ids.
func (r *SeatRepo) GetForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64) ([]model.Seat, error) {
    if len(seatIDs) == 0 {
        return nil, nil
    }
    q := `SELECT id, event_id, row_label, seat_number, status, booked_by, created_at, updated_at
          FROM seats
          WHERE event_id = ? AND id IN (` + placeholders(len(seatIDs)) + `)
          ORDER BY row_label, seat_number`
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, eventID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var result []model.Seat
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(
            &s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.Status,
            &s.BookedBy, &s.CreatedAt, &s.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        result = append(result, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return result, nil
}

// ReserveTx flips the requested seats of an event from AVAILABLE to
// BOOKED in one conditional statement and returns how many rows it
// actually changed. The status predicate makes the update the
// serialization point: two competing reservations can never both see
// the same seat as AVAILABLE, so the caller only has to compare the
// returned count against the request size.
func (r *SeatRepo) ReserveTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatIDs []uint64, userID uint64) (int64, error) {
    if len(seatIDs) == 0 {
        return 0, nil
    }
    q := `UPDATE seats
          SET status = 'BOOKED', booked_by = ?, updated_at = CURRENT_TIMESTAMP
          WHERE event_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) AND status = 'AVAILABLE'`
    args := make([]interface{}, 0, len(seatIDs)+2)
    args = append(args, userID, eventID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    res, err := tx.ExecContext(ctx, q, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ReleaseByBookingTx returns all BOOKED seats of a booking to AVAILABLE
// and reports how many seats it released. Seats already released (for
// example by a previous cancel) are left untouched, which is what makes
// cancellation idempotent at the storage level.
func (r *SeatRepo) ReleaseByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (int64, error) {
    const q = `UPDATE seats s
               JOIN booking_seats bs ON bs.seat_id = s.id
               SET s.status = 'AVAILABLE', s.booked_by = NULL, s.updated_at = CURRENT_TIMESTAMP
               WHERE bs.booking_id = ? AND s.status = 'BOOKED'`
    res, err := tx.ExecContext(ctx, q, bookingID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// DeleteByEventTx removes all seats of an event inside a transaction.
// Used when a layout is replaced; callers must have verified that no
// non-cancelled booking still references these seats.
func (r *SeatRepo) DeleteByEventTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    const q = `DELETE FROM seats WHERE event_id = ?`
    _, err := tx.ExecContext(ctx, q, eventID)
    return err
}

// placeholders builds "?, ?, ?" for IN clauses with n members.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.Repeat("?, ", n-1) + "?"
}
