package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/tickethub/tickethub/internal/model"
)

// SeatHandler exposes the seat map and the live seat-change stream.
type SeatHandler struct {
    Svc BookingAPI
}

// NewSeatHandler constructs a SeatHandler; the service must be non-nil.
func NewSeatHandler(svc BookingAPI) *SeatHandler {
    if svc == nil {
        panic("nil service passed to NewSeatHandler")
    }
    return &SeatHandler{Svc: svc}
}

// GetSeats handles GET /v1/events/:id/seats. Public. The first read of
// an event materializes its grid, so the response always carries the
// full layout in row/number order.
func (h *SeatHandler) GetSeats(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ev, seats, err := h.Svc.GetSeats(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    if seats == nil {
        seats = []model.Seat{}
    }
    return c.JSON(http.StatusOK, echo.Map{
        "event_id":      ev.ID,
        "seat_rows":     ev.SeatRows,
        "seats_per_row": ev.SeatsPerRow,
        "total_seats":   ev.TotalSeats,
        "booked_seats":  ev.BookedSeats,
        "seats":         seats,
    })
}

// Stream handles GET /v1/events/:id/seats/stream. It holds the
// connection open and pushes seat changes for the event as
// server-sent events. Delivery is best-effort; clients re-fetch the
// seat map after a change (or on the LAYOUT marker).
func (h *SeatHandler) Stream(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    // Verify the event exists before committing to a stream.
    if _, err := h.Svc.GetEvent(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }

    ch, cancel := h.Svc.SubscribeSeats(id)
    defer cancel()
    if ch == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live updates are disabled"})
    }

    resp := c.Response()
    resp.Header().Set(echo.HeaderContentType, "text/event-stream")
    resp.Header().Set("Cache-Control", "no-cache")
    resp.Header().Set("Connection", "keep-alive")
    resp.WriteHeader(http.StatusOK)
    resp.Flush()

    // Periodic comments keep proxies from closing an idle stream.
    keepalive := time.NewTicker(25 * time.Second)
    defer keepalive.Stop()

    ctx := c.Request().Context()
    for {
        select {
        case <-ctx.Done():
            return nil
        case <-keepalive.C:
            if _, err := fmt.Fprint(resp, ": keepalive\n\n"); err != nil {
                return nil
            }
            resp.Flush()
        case ev, open := <-ch:
            if !open {
                return nil
            }
            payload, err := json.Marshal(ev)
            if err != nil {
                continue
            }
            if _, err := fmt.Fprintf(resp, "event: seatsUpdated\ndata: %s\n\n", payload); err != nil {
                return nil
            }
            resp.Flush()
        }
    }
}
