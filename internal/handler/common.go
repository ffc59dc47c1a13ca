package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/tickethub/tickethub/internal/layout"
    "github.com/tickethub/tickethub/internal/model"
    "github.com/tickethub/tickethub/internal/notifier"
    "github.com/tickethub/tickethub/internal/repository"
    "github.com/tickethub/tickethub/internal/service"
)

// BookingAPI is the slice of the booking service the HTTP layer uses.
// Handlers depend on this interface instead of the concrete service so
// tests can substitute a stub.
type BookingAPI interface {
    CreateEvent(ctx context.Context, in service.CreateEventInput) (*model.Event, error)
    GetEvent(ctx context.Context, id uint64) (*model.Event, error)
    ListEvents(ctx context.Context, activeOnly bool) ([]model.Event, error)
    UpdateEvent(ctx context.Context, id uint64, in service.UpdateEventInput) (*model.Event, error)
    DeleteEvent(ctx context.Context, id uint64) error
    GetSeats(ctx context.Context, eventID uint64) (*model.Event, []model.Seat, error)
    EditLayout(ctx context.Context, eventID uint64, rows, perRow int) (*model.Event, error)
    Reserve(ctx context.Context, in service.ReserveInput) (*model.Booking, []string, error)
    Cancel(ctx context.Context, bookingID, requesterID uint64, admin bool) (*model.Booking, error)
    ApproveAndDeliver(ctx context.Context, bookingID uint64) (*model.Booking, bool, error)
    MyBookings(ctx context.Context, userID uint64) ([]repository.BookingSummary, error)
    AllBookings(ctx context.Context) ([]repository.BookingSummary, error)
    DashboardStats(ctx context.Context) (repository.Stats, error)
    SubscribeSeats(eventID uint64) (<-chan notifier.SeatChange, func())
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) { // begin getUserID helper
    v := c.Get("user_id") // fetch user_id from context
    switch t := v.(type) { // perform type switch on the value
    case uint64: // when already uint64
        return t, nil // return directly
    case int: // when stored as int
        return uint64(t), nil // convert to uint64
    case int64: // when stored as int64
        return uint64(t), nil // convert to uint64
    case float64: // when stored as float64
        return uint64(t), nil // convert to uint64
    case string: // when stored as string
        if n, err := strconv.ParseUint(t, 10, 64); err == nil { // parse string to uint64
            return n, nil // return parsed number
        }
    } // end type switch
    return 0, errors.New("invalid user_id in context") // return error if value is missing or invalid
}

// isAdmin reports whether the JWT role claim stored in context is ADMIN.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get("role").(string)
    return role == model.RoleAdmin
}

// pathID parses a numeric path parameter; zero is rejected.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// respondError translates the error taxonomy into HTTP responses.
// Validation failures carry their message through; unexpected errors
// collapse to a generic 500 so internals never leak.
func respondError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrEventNotFound),
        errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrSeatUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are no longer available"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, service.ErrInvalid),
        errors.Is(err, layout.ErrBadDimensions):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}
