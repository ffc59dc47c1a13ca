package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/tickethub/tickethub/internal/config"
    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/repository"
    "github.com/tickethub/tickethub/internal/service"
)

// BookingHandler exposes the buyer-facing booking lifecycle: the two
// payment entry points that create bookings, cancellation and the
// user's booking list. All routes require a JWT.
type BookingHandler struct {
    Cfg config.Config
    Svc BookingAPI
}

// NewBookingHandler constructs a BookingHandler; the service must be non-nil.
func NewBookingHandler(cfg config.Config, svc BookingAPI) *BookingHandler {
    if svc == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Cfg: cfg, Svc: svc}
}

type contactPart struct {
    Name  string `json:"name"`
    Email string `json:"email"`
}

type reserveReq struct {
    EventID uint64      `json:"event_id"`
    SeatIDs []uint64    `json:"seat_ids"`
    Contact contactPart `json:"contact"`
}

type verifyReq struct {
    reserveReq
    OrderID   string `json:"order_id"`
    PaymentID string `json:"payment_id"`
    Signature string `json:"signature"`
}

type bookingResp struct {
    Booking *model.Booking `json:"booking"`
    Seats   []string       `json:"seats"`
}

func (h *BookingHandler) reserve(c echo.Context, req reserveReq, paymentRef, method, status string) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    booking, seats, err := h.Svc.Reserve(c.Request().Context(), service.ReserveInput{
        EventID:       req.EventID,
        SeatIDs:       req.SeatIDs,
        UserID:        userID,
        ContactName:   strings.TrimSpace(req.Contact.Name),
        ContactEmail:  strings.TrimSpace(req.Contact.Email),
        PaymentRef:    paymentRef,
        PaymentMethod: method,
        PaymentStatus: status,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, bookingResp{Booking: booking, Seats: seats})
}

// DemoPayment handles POST /v1/payments/demo. The demo flow trusts the
// charge and books immediately; the booking stays PENDING until an
// admin approves it.
func (h *BookingHandler) DemoPayment(c echo.Context) error {
    var req reserveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    return h.reserve(c, req, "", "DEMO", "COMPLETED")
}

// VerifyPayment handles POST /v1/payments/verify. The gateway's
// HMAC-SHA256 signature over "order_id|payment_id" must check out
// before any seat is touched.
func (h *BookingHandler) VerifyPayment(c echo.Context) error {
    var req verifyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if !service.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, h.Cfg.PaymentSecret) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment signature verification failed"})
    }
    return h.reserve(c, req.reserveReq, req.PaymentID, "GATEWAY", "COMPLETED")
}

// Cancel handles POST /v1/bookings/:id/cancel. Owner or admin only;
// cancelling twice reports success without touching anything.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    booking, err := h.Svc.Cancel(c.Request().Context(), id, userID, isAdmin(c))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, booking)
}

// MyBookings handles GET /v1/my-bookings: the caller's bookings,
// newest first, with event title and seat labels.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Svc.MyBookings(c.Request().Context(), userID)
    if err != nil {
        return respondError(c, err)
    }
    if bookings == nil {
        bookings = []repository.BookingSummary{}
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
