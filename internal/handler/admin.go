package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/tickethub/tickethub/internal/repository"
)

// AdminHandler exposes the admin dashboard: booking oversight, ticket
// approval and stats. Routes are mounted behind RequireRole(ADMIN).
type AdminHandler struct {
    Svc BookingAPI
}

// NewAdminHandler constructs an AdminHandler; the service must be non-nil.
func NewAdminHandler(svc BookingAPI) *AdminHandler {
    if svc == nil {
        panic("nil service passed to NewAdminHandler")
    }
    return &AdminHandler{Svc: svc}
}

// ListBookings handles GET /v1/admin/bookings: every booking, newest
// first, with event title and seat labels.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    bookings, err := h.Svc.AllBookings(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    if bookings == nil {
        bookings = []repository.BookingSummary{}
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// SendTicket handles POST /v1/admin/bookings/:id/send-ticket. It
// confirms the booking and hands the ticket to the delivery queue.
// Confirmation sticks even when the hand-off fails; the response then
// carries a warning and ticket_sent stays false so the ticket can be
// re-sent later.
func (h *AdminHandler) SendTicket(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    booking, delivered, err := h.Svc.ApproveAndDeliver(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    resp := echo.Map{"booking": booking, "ticket_sent": delivered}
    if !delivered {
        resp["warning"] = "booking confirmed but ticket delivery failed; retry send-ticket"
    }
    return c.JSON(http.StatusOK, resp)
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
    stats, err := h.Svc.DashboardStats(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, stats)
}
