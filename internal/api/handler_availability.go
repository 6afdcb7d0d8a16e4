package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resort-booking-backend/internal/booking"
	"resort-booking-backend/internal/model"
)

// GetAvailability handles GET /api/availability. It is a pure read; the
// result is advisory until a commit succeeds.
func (h *Handler) GetAvailability(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "tenantId is required"})
		return
	}

	start, err := parseTime(c.Query("start"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid 'start' timestamp; use RFC3339"})
		return
	}
	end, err := parseTime(c.Query("end"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid 'end' timestamp; use RFC3339"})
		return
	}

	partySize := 1
	if raw := c.Query("partySize"); raw != "" {
		partySize, err = strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid partySize"})
			return
		}
	}

	result, err := h.planner.FindAvailable(c.Request.Context(), booking.Request{
		TenantID:     tenantID,
		ResourceID:   c.Query("resourceId"),
		ResourceType: model.ResourceType(c.Query("resourceType")),
		Start:        start,
		End:          end,
		PartySize:    partySize,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}

	// feasible is always a list in the response, even when empty.
	feasible := result.Feasible
	if feasible == nil {
		feasible = []booking.Option{}
	}
	c.JSON(http.StatusOK, gin.H{"feasible": feasible, "reason": result.Reason})
}
