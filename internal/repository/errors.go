// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records (e.g. editing
// a layout while live bookings reference its seats).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as replacing the
// seat layout of an event that still has non-cancelled bookings.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatUnavailable is returned when a reservation cannot take all of
// the requested seats because at least one of them is no longer
// AVAILABLE. The reservation is all-or-nothing, so nothing was booked.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrDuplicateSeat is returned when a bulk seat insert violates the
// (event_id, row_label, seat_number) unique key. It means another
// writer materialized the same grid first; callers resolve it by
// re-reading the existing seats instead of surfacing the conflict.
var ErrDuplicateSeat = errors.New("duplicate seat identity")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")
