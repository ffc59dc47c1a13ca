package service

// Integration tests for the booking lifecycle. They need a real MySQL
// with the schema from internal/database/schema.sql applied and are
// skipped unless TEST_DB_DSN is set, e.g.
//
//   TEST_DB_DSN='root:secret@tcp(localhost:3306)/tickethub_test?charset=utf8mb4&parseTime=true&loc=UTC' go test ./internal/service/

import (
    "context"
    "database/sql"
    "os"
    "sync"
    "testing"
    "time"

    _ "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/repository"
)

func newTestService(t *testing.T) (*BookingService, *sql.DB) {
    t.Helper()
    dsn := os.Getenv("TEST_DB_DSN")
    if dsn == "" {
        t.Skip("TEST_DB_DSN not set; skipping integration test")
    }
    db, err := sql.Open("mysql", dsn)
    require.NoError(t, err)
    require.NoError(t, db.Ping())
    t.Cleanup(func() { _ = db.Close() })

    // Start from a clean slate.
    _, err = db.Exec("SET FOREIGN_KEY_CHECKS = 0")
    require.NoError(t, err)
    for _, table := range []string{"booking_seats", "bookings", "seats", "events", "users"} {
        _, err = db.Exec("TRUNCATE TABLE " + table)
        require.NoError(t, err)
    }
    _, err = db.Exec("SET FOREIGN_KEY_CHECKS = 1")
    require.NoError(t, err)

    svc := NewBookingService(db,
        repository.NewEventRepo(db),
        repository.NewSeatRepo(db),
        repository.NewBookingRepo(db),
        nil, // notifications not under test
        20)
    return svc, db
}

func createTestUser(t *testing.T, db *sql.DB, email string) uint64 {
    t.Helper()
    res, err := db.Exec(
        "INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, 'x', 'USER')",
        "Test User", email)
    require.NoError(t, err)
    id, err := res.LastInsertId()
    require.NoError(t, err)
    return uint64(id)
}

// createBareEvent inserts an event row without any seats, the state a
// freshly imported event is in before its grid is materialized.
func createBareEvent(t *testing.T, db *sql.DB, rows, perRow int, priceCents uint32) uint64 {
    t.Helper()
    res, err := db.Exec(
        `INSERT INTO events (title, venue, starts_at, price_cents, seat_rows, seats_per_row, total_seats)
         VALUES ('Test Event', 'Test Hall', ?, ?, ?, ?, ?)`,
        time.Now().UTC().Add(24*time.Hour), priceCents, rows, perRow, rows*perRow)
    require.NoError(t, err)
    id, err := res.LastInsertId()
    require.NoError(t, err)
    return uint64(id)
}

func bookedCounter(t *testing.T, db *sql.DB, eventID uint64) int {
    t.Helper()
    var n int
    require.NoError(t, db.QueryRow("SELECT booked_seats FROM events WHERE id = ?", eventID).Scan(&n))
    return n
}

func bookedSeatRows(t *testing.T, db *sql.DB, eventID uint64) int {
    t.Helper()
    var n int
    require.NoError(t, db.QueryRow(
        "SELECT COUNT(*) FROM seats WHERE event_id = ? AND status = 'BOOKED'", eventID).Scan(&n))
    return n
}

func TestGetSeatsMaterializesDefaultGrid(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 10, 10, 1500)

    ev, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, seats, 100)
    assert.Equal(t, 100, ev.TotalSeats)
    assert.Equal(t, 0, ev.BookedSeats)

    // Display order and identity disjointness.
    assert.Equal(t, "A1", seats[0].Label())
    assert.Equal(t, "A10", seats[9].Label())
    assert.Equal(t, "J10", seats[99].Label())
    labels := make(map[string]struct{}, len(seats))
    for _, s := range seats {
        labels[s.Label()] = struct{}{}
        assert.Equal(t, model.SeatAvailable, s.Status)
    }
    assert.Len(t, labels, 100)

    // Second read returns the same rows, no re-materialization.
    _, again, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, again, 100)
    assert.Equal(t, seats[0].ID, again[0].ID)
}

func TestReserveIsAllOrNothing(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 2, 3, 1000)
    alice := createTestUser(t, db, "alice@example.com")
    bob := createTestUser(t, db, "bob@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, seats, 6)

    // Alice takes the middle seat.
    _, _, err = svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[1].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)
    require.Equal(t, 1, bookedCounter(t, db, eventID))

    // Bob requests a batch that includes Alice's seat: nothing books.
    _, _, err = svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID, seats[1].ID, seats[2].ID}, UserID: bob,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.ErrorIs(t, err, repository.ErrSeatUnavailable)

    assert.Equal(t, 1, bookedCounter(t, db, eventID))
    assert.Equal(t, 1, bookedSeatRows(t, db, eventID))

    var bookings int
    require.NoError(t, db.QueryRow(
        "SELECT COUNT(*) FROM bookings WHERE user_id = ?", bob).Scan(&bookings))
    assert.Zero(t, bookings, "failed reservation must not leave a booking row")
}

func TestCancelReleasesSeatsAndIsIdempotent(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 3, 3, 500)
    alice := createTestUser(t, db, "alice@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)

    booking, _, err := svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID, seats[1].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)
    require.Equal(t, 2, bookedCounter(t, db, eventID))

    got, err := svc.Cancel(ctx, booking.ID, alice, false)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, got.Status)
    assert.Equal(t, 0, bookedCounter(t, db, eventID))
    assert.Equal(t, 0, bookedSeatRows(t, db, eventID))

    // Cancel again: success, nothing double-released.
    got, err = svc.Cancel(ctx, booking.ID, alice, false)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, got.Status)
    assert.Equal(t, 0, bookedCounter(t, db, eventID))
}

func TestCancelForeignBookingForbidden(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 2, 2, 500)
    alice := createTestUser(t, db, "alice@example.com")
    mallory := createTestUser(t, db, "mallory@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    booking, _, err := svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)

    _, err = svc.Cancel(ctx, booking.ID, mallory, false)
    require.ErrorIs(t, err, repository.ErrForbidden)
    assert.Equal(t, 1, bookedCounter(t, db, eventID))

    // An admin may cancel on the user's behalf.
    _, err = svc.Cancel(ctx, booking.ID, mallory, true)
    require.NoError(t, err)
    assert.Equal(t, 0, bookedCounter(t, db, eventID))
}

func TestConcurrentReserveSingleSeat(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 1, 1, 2000)
    alice := createTestUser(t, db, "alice@example.com")
    bob := createTestUser(t, db, "bob@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, seats, 1)
    seatID := seats[0].ID

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i, uid := range []uint64{alice, bob} {
        wg.Add(1)
        go func(i int, uid uint64) {
            defer wg.Done()
            _, _, errs[i] = svc.Reserve(ctx, ReserveInput{
                EventID: eventID, SeatIDs: []uint64{seatID}, UserID: uid,
                PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
            })
        }(i, uid)
    }
    wg.Wait()

    succeeded := 0
    for _, e := range errs {
        if e == nil {
            succeeded++
        } else {
            require.ErrorIs(t, e, repository.ErrSeatUnavailable)
        }
    }
    assert.Equal(t, 1, succeeded, "exactly one reservation must win")
    assert.Equal(t, 1, bookedCounter(t, db, eventID))
    assert.Equal(t, 1, bookedSeatRows(t, db, eventID))
}

func TestEditLayoutReplacesGrid(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 10, 10, 1000)
    alice := createTestUser(t, db, "alice@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, seats, 100)

    // A live booking blocks the edit.
    booking, _, err := svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)

    _, err = svc.EditLayout(ctx, eventID, 5, 8)
    require.ErrorIs(t, err, repository.ErrConflict)

    // After cancellation the edit goes through atomically.
    _, err = svc.Cancel(ctx, booking.ID, alice, false)
    require.NoError(t, err)

    ev, err := svc.EditLayout(ctx, eventID, 5, 8)
    require.NoError(t, err)
    assert.Equal(t, 40, ev.TotalSeats)
    assert.Equal(t, 0, ev.BookedSeats)

    _, seats, err = svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, seats, 40)
    assert.Equal(t, "A1", seats[0].Label())
    assert.Equal(t, "E8", seats[39].Label())
    for _, s := range seats {
        assert.Equal(t, model.SeatAvailable, s.Status)
    }

    // The cancelled booking survives the grid swap with its labels.
    mine, err := svc.MyBookings(ctx, alice)
    require.NoError(t, err)
    require.Len(t, mine, 1)
    assert.Equal(t, model.BookingCancelled, mine[0].Status)
    assert.Equal(t, []string{"A1"}, mine[0].SeatLabels)
}

func TestDeleteEventWithCancelledBookings(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 2, 2, 750)
    alice := createTestUser(t, db, "alice@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    booking, _, err := svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)

    // A live booking blocks the delete.
    err = svc.DeleteEvent(ctx, eventID)
    require.ErrorIs(t, err, repository.ErrConflict)

    // Once cancelled, the delete goes through and takes the booking
    // history with it.
    _, err = svc.Cancel(ctx, booking.ID, alice, false)
    require.NoError(t, err)
    require.NoError(t, svc.DeleteEvent(ctx, eventID))

    _, err = svc.GetEvent(ctx, eventID)
    require.ErrorIs(t, err, repository.ErrEventNotFound)
    mine, err := svc.MyBookings(ctx, alice)
    require.NoError(t, err)
    assert.Empty(t, mine)
}

func TestReserveInactiveEventRejected(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 2, 2, 500)
    alice := createTestUser(t, db, "alice@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    _, err = db.Exec("UPDATE events SET status = 'INACTIVE' WHERE id = ?", eventID)
    require.NoError(t, err)

    _, _, err = svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.ErrorIs(t, err, ErrInvalid)
    assert.Equal(t, 0, bookedCounter(t, db, eventID))
}

func TestReserveTotalBeyond32Bits(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    // Two seats at this price push the total past what 32 bits hold.
    eventID := createBareEvent(t, db, 1, 2, 2_200_000_000)
    alice := createTestUser(t, db, "alice@example.com")

    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    require.Len(t, seats, 2)

    booking, _, err := svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID, seats[1].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)
    assert.Equal(t, uint64(4_400_000_000), booking.TotalAmountCents)

    // The stored row carries the full amount too.
    stored, err := repository.NewBookingRepo(db).GetByID(ctx, booking.ID)
    require.NoError(t, err)
    assert.Equal(t, uint64(4_400_000_000), stored.TotalAmountCents)
}

func TestReserveRejectsForeignSeatIDs(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventA := createBareEvent(t, db, 2, 2, 500)
    eventB := createBareEvent(t, db, 2, 2, 500)
    alice := createTestUser(t, db, "alice@example.com")

    _, seatsA, err := svc.GetSeats(ctx, eventA)
    require.NoError(t, err)
    _, seatsB, err := svc.GetSeats(ctx, eventB)
    require.NoError(t, err)

    // Mixing another event's seat id into the request books nothing.
    _, _, err = svc.Reserve(ctx, ReserveInput{
        EventID: eventA, SeatIDs: []uint64{seatsA[0].ID, seatsB[0].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.ErrorIs(t, err, ErrInvalid)
    assert.Equal(t, 0, bookedCounter(t, db, eventA))
    assert.Equal(t, 0, bookedCounter(t, db, eventB))
}

func TestReserveValidation(t *testing.T) {
    svc, db := newTestService(t)
    ctx := context.Background()
    eventID := createBareEvent(t, db, 2, 2, 500)
    alice := createTestUser(t, db, "alice@example.com")

    _, _, err := svc.Reserve(ctx, ReserveInput{EventID: eventID, UserID: alice})
    require.ErrorIs(t, err, ErrInvalid)

    _, _, err = svc.Reserve(ctx, ReserveInput{EventID: 9999, SeatIDs: []uint64{1}, UserID: alice})
    require.ErrorIs(t, err, repository.ErrEventNotFound)

    // Booking total reflects seat count times event price.
    _, seats, err := svc.GetSeats(ctx, eventID)
    require.NoError(t, err)
    booking, labels, err := svc.Reserve(ctx, ReserveInput{
        EventID: eventID, SeatIDs: []uint64{seats[0].ID, seats[3].ID}, UserID: alice,
        PaymentMethod: "DEMO", PaymentStatus: "COMPLETED",
    })
    require.NoError(t, err)
    assert.Equal(t, uint64(1000), booking.TotalAmountCents)
    assert.Equal(t, []string{"A1", "B2"}, labels)
    assert.Contains(t, booking.Reference, "BK-")
}
