package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/service"
)

// EventHandler exposes public event browsing and the admin event CRUD.
type EventHandler struct {
    Svc BookingAPI
}

// NewEventHandler constructs an EventHandler; the service must be non-nil.
func NewEventHandler(svc BookingAPI) *EventHandler {
    if svc == nil {
        panic("nil service passed to NewEventHandler")
    }
    return &EventHandler{Svc: svc}
}

type eventReq struct {
    Title       string `json:"title"`
    Description string `json:"description"`
    Venue       string `json:"venue"`
    StartsAt    string `json:"starts_at"` // RFC3339
    PriceCents  uint32 `json:"price_cents"`
    SeatRows    int    `json:"seat_rows"`
    SeatsPerRow int    `json:"seats_per_row"`
    Status      string `json:"status"`
    ImageURL    string `json:"image_url"`
}

func (r eventReq) startsAt() (time.Time, bool) {
    if strings.TrimSpace(r.StartsAt) == "" {
        return time.Time{}, true
    }
    t, err := time.Parse(time.RFC3339, r.StartsAt)
    if err != nil {
        return time.Time{}, false
    }
    return t, true
}

// List handles GET /v1/events. Public; INACTIVE events are hidden.
func (h *EventHandler) List(c echo.Context) error {
    events, err := h.Svc.ListEvents(c.Request().Context(), true)
    if err != nil {
        return respondError(c, err)
    }
    if events == nil {
        events = []model.Event{}
    }
    return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get handles GET /v1/events/:id. Public.
func (h *EventHandler) Get(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ev, err := h.Svc.GetEvent(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ev)
}

// Create handles POST /v1/admin/events. The seat grid is materialized
// together with the event; omitted dimensions select the 10x10 default.
func (h *EventHandler) Create(c echo.Context) error {
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    startsAt, ok := req.startsAt()
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
    }
    ev, err := h.Svc.CreateEvent(c.Request().Context(), service.CreateEventInput{
        Title:       strings.TrimSpace(req.Title),
        Description: req.Description,
        Venue:       strings.TrimSpace(req.Venue),
        StartsAt:    startsAt,
        PriceCents:  req.PriceCents,
        SeatRows:    req.SeatRows,
        SeatsPerRow: req.SeatsPerRow,
        ImageURL:    req.ImageURL,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, ev)
}

// Update handles PUT /v1/admin/events/:id. Metadata only; layout
// changes go through the layout endpoint.
func (h *EventHandler) Update(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var req eventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    startsAt, ok := req.startsAt()
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    if status == "" {
        status = model.EventActive
    }
    ev, err := h.Svc.UpdateEvent(c.Request().Context(), id, service.UpdateEventInput{
        Title:       strings.TrimSpace(req.Title),
        Description: req.Description,
        Venue:       strings.TrimSpace(req.Venue),
        StartsAt:    startsAt,
        PriceCents:  req.PriceCents,
        Status:      status,
        ImageURL:    req.ImageURL,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ev)
}

// Delete handles DELETE /v1/admin/events/:id. Refused with 409 while
// non-cancelled bookings exist.
func (h *EventHandler) Delete(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    if err := h.Svc.DeleteEvent(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// EditLayout handles PUT /v1/admin/events/:id/layout. Replaces the
// whole grid; refused with 409 while non-cancelled bookings exist.
func (h *EventHandler) EditLayout(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    var req struct {
        SeatRows    int `json:"seat_rows"`
        SeatsPerRow int `json:"seats_per_row"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ev, err := h.Svc.EditLayout(c.Request().Context(), id, req.SeatRows, req.SeatsPerRow)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, ev)
}
