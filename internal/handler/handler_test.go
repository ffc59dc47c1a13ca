package handler

import (
    "context"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/tickethub/tickethub/internal/config"
    "github.com/tickethub/tickethub/internal/layout"
    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/notifier"
    "github.com/tickethub/tickethub/internal/repository"
    "github.com/tickethub/tickethub/internal/service"
)

// stubAPI implements BookingAPI with overridable function fields so
// each test wires only what it needs.
type stubAPI struct {
    reserveFn   func(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error)
    cancelFn    func(ctx context.Context, bookingID, requesterID uint64, admin bool) (*model.Booking, error)
    approveFn   func(ctx context.Context, bookingID uint64) (*model.Booking, bool, error)
    getSeatsFn  func(ctx context.Context, eventID uint64) (*model.Event, []model.Seat, error)
    editFn      func(ctx context.Context, eventID uint64, rows, perRow int) (*model.Event, error)
    getEventFn  func(ctx context.Context, id uint64) (*model.Event, error)
    myBookingFn func(ctx context.Context, userID uint64) ([]repository.BookingSummary, error)
}

func (s *stubAPI) CreateEvent(ctx context.Context, in service.CreateEventInput) (*model.Event, error) {
    return nil, fmt.Errorf("not wired")
}
func (s *stubAPI) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
    if s.getEventFn != nil {
        return s.getEventFn(ctx, id)
    }
    return &model.Event{ID: id}, nil
}
func (s *stubAPI) ListEvents(ctx context.Context, activeOnly bool) ([]model.Event, error) {
    return nil, nil
}
func (s *stubAPI) UpdateEvent(ctx context.Context, id uint64, in service.UpdateEventInput) (*model.Event, error) {
    return nil, fmt.Errorf("not wired")
}
func (s *stubAPI) DeleteEvent(ctx context.Context, id uint64) error { return fmt.Errorf("not wired") }
func (s *stubAPI) GetSeats(ctx context.Context, eventID uint64) (*model.Event, []model.Seat, error) {
    if s.getSeatsFn != nil {
        return s.getSeatsFn(ctx, eventID)
    }
    return nil, nil, repository.ErrEventNotFound
}
func (s *stubAPI) EditLayout(ctx context.Context, eventID uint64, rows, perRow int) (*model.Event, error) {
    if s.editFn != nil {
        return s.editFn(ctx, eventID, rows, perRow)
    }
    return nil, fmt.Errorf("not wired")
}
func (s *stubAPI) Reserve(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error) {
    if s.reserveFn != nil {
        return s.reserveFn(ctx, in)
    }
    return nil, nil, fmt.Errorf("not wired")
}
func (s *stubAPI) Cancel(ctx context.Context, bookingID, requesterID uint64, admin bool) (*model.Booking, error) {
    if s.cancelFn != nil {
        return s.cancelFn(ctx, bookingID, requesterID, admin)
    }
    return nil, fmt.Errorf("not wired")
}
func (s *stubAPI) ApproveAndDeliver(ctx context.Context, bookingID uint64) (*model.Booking, bool, error) {
    if s.approveFn != nil {
        return s.approveFn(ctx, bookingID)
    }
    return nil, false, fmt.Errorf("not wired")
}
func (s *stubAPI) MyBookings(ctx context.Context, userID uint64) ([]repository.BookingSummary, error) {
    if s.myBookingFn != nil {
        return s.myBookingFn(ctx, userID)
    }
    return nil, nil
}
func (s *stubAPI) AllBookings(ctx context.Context) ([]repository.BookingSummary, error) {
    return nil, nil
}
func (s *stubAPI) DashboardStats(ctx context.Context) (repository.Stats, error) {
    return repository.Stats{}, nil
}
func (s *stubAPI) SubscribeSeats(eventID uint64) (<-chan notifier.SeatChange, func()) {
    return nil, func() {}
}

func newCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, id uint64) {
    c.Set("user_id", id)
    c.Set("role", model.RoleUser)
}

func asAdmin(c echo.Context, id uint64) {
    c.Set("user_id", id)
    c.Set("role", model.RoleAdmin)
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
    t.Helper()
    var body map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    msg, _ := body["error"].(string)
    return msg
}

func TestDemoPaymentCreatesPendingBooking(t *testing.T) {
    stub := &stubAPI{
        reserveFn: func(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error) {
            assert.Equal(t, uint64(3), in.EventID)
            assert.Equal(t, []uint64{1, 2}, in.SeatIDs)
            assert.Equal(t, uint64(7), in.UserID)
            assert.Equal(t, "DEMO", in.PaymentMethod)
            assert.Equal(t, "COMPLETED", in.PaymentStatus)
            return &model.Booking{ID: 11, Reference: "BK-test", Status: model.BookingPending}, []string{"A1", "A2"}, nil
        },
    }
    h := NewBookingHandler(config.Config{}, stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/payments/demo",
        `{"event_id":3,"seat_ids":[1,2],"contact":{"name":"Jo","email":"jo@example.com"}}`)
    asUser(c, 7)

    require.NoError(t, h.DemoPayment(c))
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp bookingResp
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "BK-test", resp.Booking.Reference)
    assert.Equal(t, model.BookingPending, resp.Booking.Status)
    assert.Equal(t, []string{"A1", "A2"}, resp.Seats)
}

func TestDemoPaymentSeatUnavailableIs409(t *testing.T) {
    stub := &stubAPI{
        reserveFn: func(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error) {
            return nil, nil, repository.ErrSeatUnavailable
        },
    }
    h := NewBookingHandler(config.Config{}, stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/payments/demo", `{"event_id":3,"seat_ids":[1]}`)
    asUser(c, 7)

    require.NoError(t, h.DemoPayment(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDemoPaymentErrorMapping(t *testing.T) {
    cases := []struct {
        name string
        err  error
        code int
    }{
        {"event missing", repository.ErrEventNotFound, http.StatusNotFound},
        {"invalid request", fmt.Errorf("%w: seat_ids is required", service.ErrInvalid), http.StatusBadRequest},
        {"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            stub := &stubAPI{
                reserveFn: func(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error) {
                    return nil, nil, tc.err
                },
            }
            h := NewBookingHandler(config.Config{}, stub)
            c, rec := newCtx(t, http.MethodPost, "/v1/payments/demo", `{"event_id":3,"seat_ids":[1]}`)
            asUser(c, 7)
            require.NoError(t, h.DemoPayment(c))
            assert.Equal(t, tc.code, rec.Code)
        })
    }
}

func TestDemoPaymentRequiresIdentity(t *testing.T) {
    h := NewBookingHandler(config.Config{}, &stubAPI{})
    c, rec := newCtx(t, http.MethodPost, "/v1/payments/demo", `{"event_id":3,"seat_ids":[1]}`)

    require.NoError(t, h.DemoPayment(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
    called := false
    stub := &stubAPI{
        reserveFn: func(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error) {
            called = true
            return nil, nil, nil
        },
    }
    h := NewBookingHandler(config.Config{PaymentSecret: "secret"}, stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/payments/verify",
        `{"event_id":3,"seat_ids":[1],"order_id":"o1","payment_id":"p1","signature":"bogus"}`)
    asUser(c, 7)

    require.NoError(t, h.VerifyPayment(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.False(t, called, "reserve must not run on a bad signature")
}

func TestVerifyPaymentAcceptsGoodSignature(t *testing.T) {
    const secret = "secret"
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte("o1|p1"))
    sig := hex.EncodeToString(mac.Sum(nil))

    stub := &stubAPI{
        reserveFn: func(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error) {
            assert.Equal(t, "p1", in.PaymentRef)
            assert.Equal(t, "GATEWAY", in.PaymentMethod)
            return &model.Booking{ID: 1, Status: model.BookingPending}, []string{"A1"}, nil
        },
    }
    h := NewBookingHandler(config.Config{PaymentSecret: secret}, stub)

    body := fmt.Sprintf(`{"event_id":3,"seat_ids":[1],"order_id":"o1","payment_id":"p1","signature":%q}`, sig)
    c, rec := newCtx(t, http.MethodPost, "/v1/payments/verify", body)
    asUser(c, 7)

    require.NoError(t, h.VerifyPayment(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCancelMapsForbidden(t *testing.T) {
    stub := &stubAPI{
        cancelFn: func(ctx context.Context, bookingID, requesterID uint64, admin bool) (*model.Booking, error) {
            assert.Equal(t, uint64(5), bookingID)
            assert.Equal(t, uint64(7), requesterID)
            assert.False(t, admin)
            return nil, repository.ErrForbidden
        },
    }
    h := NewBookingHandler(config.Config{}, stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/bookings/5/cancel", "")
    c.SetParamNames("id")
    c.SetParamValues("5")
    asUser(c, 7)

    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelAdminPassesFlag(t *testing.T) {
    stub := &stubAPI{
        cancelFn: func(ctx context.Context, bookingID, requesterID uint64, admin bool) (*model.Booking, error) {
            assert.True(t, admin)
            return &model.Booking{ID: bookingID, Status: model.BookingCancelled}, nil
        },
    }
    h := NewBookingHandler(config.Config{}, stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/bookings/5/cancel", "")
    c.SetParamNames("id")
    c.SetParamValues("5")
    asAdmin(c, 1)

    require.NoError(t, h.Cancel(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var b model.Booking
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
    assert.Equal(t, model.BookingCancelled, b.Status)
}

func TestSendTicketConflictOnCancelled(t *testing.T) {
    stub := &stubAPI{
        approveFn: func(ctx context.Context, bookingID uint64) (*model.Booking, bool, error) {
            return nil, false, fmt.Errorf("%w: booking is cancelled", repository.ErrConflict)
        },
    }
    h := NewAdminHandler(stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/admin/bookings/9/send-ticket", "")
    c.SetParamNames("id")
    c.SetParamValues("9")
    asAdmin(c, 1)

    require.NoError(t, h.SendTicket(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, errorBody(t, rec), "cancelled")
}

func TestSendTicketDeliveryFailureStillConfirms(t *testing.T) {
    stub := &stubAPI{
        approveFn: func(ctx context.Context, bookingID uint64) (*model.Booking, bool, error) {
            return &model.Booking{ID: bookingID, Status: model.BookingConfirmed}, false, nil
        },
    }
    h := NewAdminHandler(stub)

    c, rec := newCtx(t, http.MethodPost, "/v1/admin/bookings/9/send-ticket", "")
    c.SetParamNames("id")
    c.SetParamValues("9")
    asAdmin(c, 1)

    require.NoError(t, h.SendTicket(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, false, resp["ticket_sent"])
    assert.NotEmpty(t, resp["warning"])
}

func TestEditLayoutBadDimensionsIs400(t *testing.T) {
    stub := &stubAPI{
        editFn: func(ctx context.Context, eventID uint64, rows, perRow int) (*model.Event, error) {
            return nil, fmt.Errorf("%w: rows must be between 1 and %d", layout.ErrBadDimensions, layout.MaxRows)
        },
    }
    h := NewEventHandler(stub)

    c, rec := newCtx(t, http.MethodPut, "/v1/admin/events/2/layout", `{"seat_rows":40,"seats_per_row":10}`)
    c.SetParamNames("id")
    c.SetParamValues("2")
    asAdmin(c, 1)

    require.NoError(t, h.EditLayout(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditLayoutConflictWithLiveBookings(t *testing.T) {
    stub := &stubAPI{
        editFn: func(ctx context.Context, eventID uint64, rows, perRow int) (*model.Event, error) {
            return nil, fmt.Errorf("%w: event has active bookings", repository.ErrConflict)
        },
    }
    h := NewEventHandler(stub)

    c, rec := newCtx(t, http.MethodPut, "/v1/admin/events/2/layout", `{"seat_rows":5,"seats_per_row":8}`)
    c.SetParamNames("id")
    c.SetParamValues("2")
    asAdmin(c, 1)

    require.NoError(t, h.EditLayout(c))
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetSeatsPayloadShape(t *testing.T) {
    stub := &stubAPI{
        getSeatsFn: func(ctx context.Context, eventID uint64) (*model.Event, []model.Seat, error) {
            ev := &model.Event{ID: eventID, SeatRows: 2, SeatsPerRow: 2, TotalSeats: 4, BookedSeats: 1}
            seats := []model.Seat{
                {ID: 1, EventID: eventID, RowLabel: "A", SeatNumber: 1, Status: model.SeatBooked},
                {ID: 2, EventID: eventID, RowLabel: "A", SeatNumber: 2, Status: model.SeatAvailable},
                {ID: 3, EventID: eventID, RowLabel: "B", SeatNumber: 1, Status: model.SeatAvailable},
                {ID: 4, EventID: eventID, RowLabel: "B", SeatNumber: 2, Status: model.SeatAvailable},
            }
            return ev, seats, nil
        },
    }
    h := NewSeatHandler(stub)

    c, rec := newCtx(t, http.MethodGet, "/v1/events/8/seats", "")
    c.SetParamNames("id")
    c.SetParamValues("8")

    require.NoError(t, h.GetSeats(c))
    require.Equal(t, http.StatusOK, rec.Code)

    var resp struct {
        EventID     uint64       `json:"event_id"`
        TotalSeats  int          `json:"total_seats"`
        BookedSeats int          `json:"booked_seats"`
        Seats       []model.Seat `json:"seats"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, uint64(8), resp.EventID)
    assert.Equal(t, 4, resp.TotalSeats)
    assert.Equal(t, 1, resp.BookedSeats)
    require.Len(t, resp.Seats, 4)
    assert.Equal(t, "A", resp.Seats[0].RowLabel)
}

func TestGetSeatsUnknownEventIs404(t *testing.T) {
    h := NewSeatHandler(&stubAPI{})

    c, rec := newCtx(t, http.MethodGet, "/v1/events/99/seats", "")
    c.SetParamNames("id")
    c.SetParamValues("99")

    require.NoError(t, h.GetSeats(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}
