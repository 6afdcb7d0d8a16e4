package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"resort-booking-backend/internal/booking"
	"resort-booking-backend/internal/store"
	"resort-booking-backend/internal/waitlist"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	planner  *booking.Planner
	workflow *booking.Workflow
	waitlist *waitlist.Manager
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, planner *booking.Planner, workflow *booking.Workflow, wl *waitlist.Manager, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		planner:  planner,
		workflow: workflow,
		waitlist: wl,
		webpush:  webpushOptions,
	}
}

// writeBookingError maps the booking error taxonomy onto HTTP statuses.
// Conflicts (409) tell the caller to re-plan; lock timeouts (503) are safe
// to retry as-is.
func writeBookingError(c *gin.Context, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"error": be.Detail, "code": be.Code}
	if be.ResourceID != "" {
		body["resourceId"] = be.ResourceID
	}
	if !be.Start.IsZero() {
		body["start"] = be.Start.Format(time.RFC3339)
		body["end"] = be.End.Format(time.RFC3339)
	}

	switch be.Code {
	case booking.CodeInvalidRequest:
		c.JSON(http.StatusUnprocessableEntity, body)
	case booking.CodeNotFound:
		c.JSON(http.StatusNotFound, body)
	case booking.CodeCapacityExhausted:
		body["waitlist"] = "/api/waitlist"
		c.JSON(http.StatusConflict, body)
	case booking.CodeCommitConflict, booking.CodeInvalidTransition:
		c.JSON(http.StatusConflict, body)
	case booking.CodeLockTimeout:
		c.Header("Retry-After", "1")
		body["retriable"] = true
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}

// parseTime parses an RFC3339 timestamp query or body value.
func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
