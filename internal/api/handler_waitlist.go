package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
	"resort-booking-backend/internal/waitlist"
)

type joinWaitlistRequest struct {
	TenantID        string   `json:"tenantId" binding:"required"`
	ResourceType    string   `json:"resourceType" binding:"required"`
	Start           string   `json:"start" binding:"required"`
	End             string   `json:"end" binding:"required"`
	PetIDs          []string `json:"petIds"`
	PartySize       int      `json:"partySize"`
	FlexibilityDays int      `json:"flexibilityDays"`
	PushEndpoint    string   `json:"pushEndpoint"`
}

// JoinWaitlist handles POST /api/waitlist.
func (h *Handler) JoinWaitlist(c *gin.Context) {
	var req joinWaitlistRequest
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

	entry, err := h.waitlist.Join(c.Request.Context(), waitlist.JoinRequest{
		TenantID:        req.TenantID,
		ResourceType:    model.ResourceType(req.ResourceType),
		Start:           start,
		End:             end,
		PetIDs:          req.PetIDs,
		PartySize:       req.PartySize,
		FlexibilityDays: req.FlexibilityDays,
		PushEndpoint:    req.PushEndpoint,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"waitlistEntry": entry})
}

// ConfirmWaitlistOffer handles POST /api/waitlist/:id/confirm.
func (h *Handler) ConfirmWaitlistOffer(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	reservation, err := h.waitlist.ConfirmOffer(c.Request.Context(), req.TenantID, c.Param("id"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reservation": reservation})
}

// GetWaitlistEntry handles GET /api/waitlist/:id.
func (h *Handler) GetWaitlistEntry(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "tenantId is required"})
		return
	}

	entry, err := h.store.GetWaitlistEntry(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "waitlist entry not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"waitlistEntry": entry})
}
