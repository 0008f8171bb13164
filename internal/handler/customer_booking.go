package handler

import (
    "context"  // context for the ReservationEngine interface
    "errors"   // for errors.Is/As comparisons
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/cinegate/screening-reservation/internal/model"       // domain types
    "github.com/cinegate/screening-reservation/internal/repository"  // repository layer
    "github.com/cinegate/screening-reservation/internal/reservation" // reservation engine
)

// ReservationEngine is the slice of the engine the booking handlers
// depend on.  A narrow interface keeps the handlers testable with a
// stub engine.
type ReservationEngine interface {
    Reserve(ctx context.Context, screeningID uint64, seatIDs []uint64, userID uint64) (*model.Booking, error)
    Cancel(ctx context.Context, screeningID uint64, seatIDs []uint64, userID uint64) error
}

// CustomerHandler serves the authenticated booking endpoints: listing a
// screening's seats, reserving seats, cancelling them and listing the
// caller's bookings.  All methods assume JWT authentication and role
// validation have already been performed by middleware and may return
// 401 Unauthorized if the user ID cannot be extracted from the context.
// The engine owns the transactional commit path; the handlers only
// translate between HTTP and the engine's typed errors.
type CustomerHandler struct {
    Engine      ReservationEngine         // serialized reserve/cancel commit path
    SeatRepo    *repository.SeatRepo      // read access to the seat registry
    BookingRepo *repository.BookingRepo   // read access to the booking ledger
    ScreeningRepo *repository.ScreeningRepo // screening existence checks for reads
}

// NewCustomerHandler constructs a CustomerHandler with the provided
// dependencies.  All of them must be non-nil.
func NewCustomerHandler(engine ReservationEngine, seatRepo *repository.SeatRepo, bookingRepo *repository.BookingRepo, screeningRepo *repository.ScreeningRepo) *CustomerHandler {
    if engine == nil || seatRepo == nil || bookingRepo == nil || screeningRepo == nil {
        panic("nil dependency passed to NewCustomerHandler")
    }
    return &CustomerHandler{
        Engine:        engine,
        SeatRepo:      seatRepo,
        BookingRepo:   bookingRepo,
        ScreeningRepo: screeningRepo,
    }
}

// seatIDsBody is the request body shared by reserve and cancel.
type seatIDsBody struct {
    SeatIDs []uint64 `json:"seat_ids"`
}

// ListSeats handles GET /v1/screenings/:id/seats.  It returns the
// screening's full seat layout ordered by row label then seat number,
// each seat carrying its display label and booked flag.  The read does
// not enter the engine's exclusive section, so it may be marginally
// stale; the event stream corrects watching clients as commits happen.
func (h *CustomerHandler) ListSeats(c echo.Context) error {
    screeningID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    ctx := c.Request().Context()
    if _, err := h.ScreeningRepo.GetByID(ctx, screeningID); err != nil {
        if errors.Is(err, repository.ErrScreeningNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    seats, err := h.SeatRepo.ListByScreening(ctx, screeningID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }
    items := make([]echo.Map, 0, len(seats))
    for _, s := range seats {
        items = append(items, echo.Map{
            "id":          s.ID,
            "seat_number": s.Label(),
            "is_booked":   s.IsBooked(),
        })
    }
    return c.JSON(http.StatusOK, items)
}

// ReserveSeats handles POST /v1/screenings/:id/reserve.  The request
// body names the seat ids to claim; the whole request succeeds or fails
// atomically.  On success it returns 201 with the booking id and seat
// labels.  A conflict returns 409 naming exactly the seats that were
// lost so the client can re-offer the remaining free ones.
func (h *CustomerHandler) ReserveSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    screeningID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    var body seatIDsBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    booking, err := h.Engine.Reserve(c.Request().Context(), screeningID, body.SeatIDs, userID)
    if err != nil {
        return bookingError(c, err)
    }
    labels := make([]string, 0, len(booking.Seats))
    for _, s := range booking.Seats {
        labels = append(labels, s.Label())
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":   booking.ID,
        "screening_id": booking.ScreeningID,
        "seats":        labels,
    })
}

// CancelSeats handles DELETE /v1/screenings/:id/seats.  The body names
// the seat ids to release; they may be any subset of the caller's
// booked seats for the screening.  Returns 204 on success.
func (h *CustomerHandler) CancelSeats(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    screeningID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    var body seatIDsBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Engine.Cancel(c.Request().Context(), screeningID, body.SeatIDs, userID); err != nil {
        return bookingError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ListBookings handles GET /v1/my-bookings.  It returns the caller's
// active bookings grouped by screening with movie, theater and seat
// display data.  When no bookings exist, it returns an empty array.
func (h *CustomerHandler) ListBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// bookingError translates the engine's typed errors into HTTP
// responses.  Everything except an internal inconsistency is a
// recoverable, caller-facing failure.
func bookingError(c echo.Context, err error) error {
    var unavailable *reservation.SeatUnavailableError
    var invalid *reservation.InvalidSeatError
    switch {
    case errors.Is(err, reservation.ErrEmptyRequest):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
    case errors.As(err, &invalid):
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":   "seats do not belong to this screening",
            "invalid": invalid.SeatIDs,
        })
    case errors.Is(err, repository.ErrScreeningNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
    case errors.As(err, &unavailable):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":       "some seats are unavailable",
            "unavailable": unavailable.SeatIDs,
        })
    case errors.Is(err, reservation.ErrNotOwner):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "seats not booked by you"})
    case errors.Is(err, reservation.ErrCancellationWindow):
        return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation allowed only up to 48 hours before showtime"})
    case errors.Is(err, reservation.ErrBusy):
        c.Response().Header().Set("Retry-After", "1")
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "screening busy, try again"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
