package handler

import (
    "encoding/json" // json encodes delta payloads onto the stream
    "errors"        // errors for sentinel comparisons
    "fmt"           // fmt writes the SSE wire format
    "net/http"      // HTTP status codes and flusher

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/cinegate/screening-reservation/internal/broadcast"  // in-process pub/sub hub
    "github.com/cinegate/screening-reservation/internal/repository" // screening existence check
)

// EventsHandler streams booking deltas for one screening to clients via
// Server-Sent Events.  Each client that opens the stream gets its own
// hub subscription; deltas are written as they arrive and the
// subscription is torn down when the client disconnects.
type EventsHandler struct {
    Hub           *broadcast.Hub            // per-screening delta fan-out
    ScreeningRepo *repository.ScreeningRepo // screening existence checks
}

// NewEventsHandler constructs an EventsHandler.  Both dependencies must
// be non-nil.
func NewEventsHandler(hub *broadcast.Hub, screeningRepo *repository.ScreeningRepo) *EventsHandler {
    if hub == nil || screeningRepo == nil {
        panic("nil dependency passed to NewEventsHandler")
    }
    return &EventsHandler{Hub: hub, ScreeningRepo: screeningRepo}
}

// Stream handles GET /v1/screenings/:id/events.  It subscribes the
// caller to the screening's booking-delta stream and writes each delta
// as an SSE event named after the delta type (seatsBooked/seatsFreed).
// The stream is best-effort: clients reconcile against the seats
// endpoint when they (re)connect.
func (h *EventsHandler) Stream(c echo.Context) error {
    screeningID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    if _, err := h.ScreeningRepo.GetByID(c.Request().Context(), screeningID); err != nil {
        if errors.Is(err, repository.ErrScreeningNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "screening not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    resp := c.Response()
    resp.Header().Set(echo.HeaderContentType, "text/event-stream")
    resp.Header().Set("Cache-Control", "no-cache")
    resp.Header().Set("Connection", "keep-alive")
    resp.WriteHeader(http.StatusOK)
    resp.Flush()

    sub := h.Hub.Subscribe(screeningID)
    defer sub.Close()

    ctx := c.Request().Context()
    for {
        select {
        case <-ctx.Done():
            return nil
        case delta, open := <-sub.Events():
            if !open {
                return nil
            }
            payload, err := json.Marshal(delta)
            if err != nil {
                continue
            }
            if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", delta.Type, payload); err != nil {
                return nil
            }
            resp.Flush()
        }
    }
}
