package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resort-booking-backend/internal/booking"
	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

type createReservationRequest struct {
	TenantID       string   `json:"tenantId" binding:"required"`
	ResourceID     string   `json:"resourceId"`
	ResourceType   string   `json:"resourceType"`
	Start          string   `json:"start" binding:"required"`
	End            string   `json:"end" binding:"required"`
	PetIDs         []string `json:"petIds"`
	PartySize      int      `json:"partySize"`
	IdempotencyKey string   `json:"idempotencyKey"`
}

// CreateReservation handles POST /api/reservations. When no explicit
// resource id is given, the planner picks the best-ranked option; the commit
// workflow re-validates capacity either way.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	start, err := parseTime(req.Start)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid 'start' timestamp; use RFC3339"})
		return
	}
	end, err := parseTime(req.End)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid 'end' timestamp; use RFC3339"})
		return
	}

	ctx := c.Request.Context()
	resourceID := req.ResourceID
	if resourceID == "" {
		result, err := h.planner.FindAvailable(ctx, booking.Request{
			TenantID:     req.TenantID,
			ResourceType: model.ResourceType(req.ResourceType),
			Start:        start,
			End:          end,
			PartySize:    partySizeOf(req.PartySize, req.PetIDs),
		})
		if err != nil {
			writeBookingError(c, err)
			return
		}
		if len(result.Feasible) == 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error":    "no resource has capacity for the requested range",
				"code":     booking.CodeCapacityExhausted,
				"reason":   result.Reason,
				"waitlist": "/api/waitlist",
			})
			return
		}
		resourceID = result.Feasible[0].ResourceID
	}

	reservation, err := h.workflow.Commit(ctx, booking.CommitRequest{
		TenantID:       req.TenantID,
		ResourceID:     resourceID,
		Start:          start,
		End:            end,
		PetIDs:         req.PetIDs,
		PartySize:      partySizeOf(req.PartySize, req.PetIDs),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		if booking.IsCode(err, booking.CodeCommitConflict) {
			h.writeConflictWithAlternatives(c, err, req, start, end)
			return
		}
		writeBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reservation": reservation})
}

// writeConflictWithAlternatives presents a lost commit race as "that option
// was just taken" together with the currently feasible options, so the
// client can re-plan in one round trip.
func (h *Handler) writeConflictWithAlternatives(c *gin.Context, err error, req createReservationRequest, start, end time.Time) {
	body := gin.H{
		"error":    "that option was just taken",
		"code":     booking.CodeCommitConflict,
		"waitlist": "/api/waitlist",
	}
	if req.ResourceType != "" {
		result, perr := h.planner.FindAvailable(c.Request.Context(), booking.Request{
			TenantID:     req.TenantID,
			ResourceType: model.ResourceType(req.ResourceType),
			Start:        start,
			End:          end,
			PartySize:    partySizeOf(req.PartySize, req.PetIDs),
		})
		if perr == nil {
			body["alternatives"] = result.Feasible
		}
	}
	c.JSON(http.StatusConflict, body)
}

func partySizeOf(partySize int, petIDs []string) int {
	if partySize > 0 {
		return partySize
	}
	if len(petIDs) > 0 {
		return len(petIDs)
	}
	return 1
}

type tenantRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
}

type transitionFunc func(c *gin.Context, tenantID, reservationID string) (*model.Reservation, error)

func (h *Handler) runTransition(c *gin.Context, fn transitionFunc) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	reservation, err := fn(c, req.TenantID, c.Param("id"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

// CancelReservation handles POST /api/reservations/:id/cancel. Idempotent.
func (h *Handler) CancelReservation(c *gin.Context) {
	h.runTransition(c, func(c *gin.Context, tenantID, id string) (*model.Reservation, error) {
		return h.workflow.Cancel(c.Request.Context(), tenantID, id)
	})
}

// CheckInReservation handles POST /api/reservations/:id/checkin.
func (h *Handler) CheckInReservation(c *gin.Context) {
	h.runTransition(c, func(c *gin.Context, tenantID, id string) (*model.Reservation, error) {
		return h.workflow.CheckIn(c.Request.Context(), tenantID, id)
	})
}

// CheckOutReservation handles POST /api/reservations/:id/checkout.
func (h *Handler) CheckOutReservation(c *gin.Context) {
	h.runTransition(c, func(c *gin.Context, tenantID, id string) (*model.Reservation, error) {
		return h.workflow.CheckOut(c.Request.Context(), tenantID, id)
	})
}

// NoShowReservation handles POST /api/reservations/:id/noshow.
func (h *Handler) NoShowReservation(c *gin.Context) {
	h.runTransition(c, func(c *gin.Context, tenantID, id string) (*model.Reservation, error) {
		return h.workflow.NoShow(c.Request.Context(), tenantID, id)
	})
}

// GetReservation handles GET /api/reservations/:id.
func (h *Handler) GetReservation(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "tenantId is required"})
		return
	}

	reservation, err := h.store.GetReservation(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

// ListReservations handles GET /api/reservations.
func (h *Handler) ListReservations(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "tenantId is required"})
		return
	}

	q := store.ReservationQuery{ResourceID: c.Query("resourceId")}
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid 'from' timestamp; use RFC3339"})
			return
		}
		q.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid 'to' timestamp; use RFC3339"})
			return
		}
		q.To = t
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), tenantID, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}
