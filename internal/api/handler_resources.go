package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/parse"
	"resort-booking-backend/internal/store"
)

type createResourceRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Capacity int    `json:"capacity"`
}

// CreateResource handles POST /api/resources.
func (h *Handler) CreateResource(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	rtype := model.ResourceType(req.Type)
	if !model.KnownResourceType(rtype) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown resource type"})
		return
	}
	if req.Capacity == 0 {
		req.Capacity = 1
	}
	if req.Capacity < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "capacity must be at least 1"})
		return
	}

	now := time.Now().UTC()
	resource := &model.Resource{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		Name:      req.Name,
		Type:      rtype,
		Capacity:  req.Capacity,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parsed, err := parse.ParseName(req.Name); err == nil {
		resource.Kind = parsed.Kind
		resource.Seq = parsed.Seq
	} else {
		log.Printf("could not parse resource name %q: %v", req.Name, err)
	}

	if err := h.store.CreateResource(c.Request.Context(), resource); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": resource})
}

// ListResources handles GET /api/resources.
func (h *Handler) ListResources(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "tenantId is required"})
		return
	}

	var types []model.ResourceType
	if raw := c.Query("type"); raw != "" {
		rtype := model.ResourceType(raw)
		if !model.KnownResourceType(rtype) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown resource type"})
			return
		}
		types = append(types, rtype)
	}

	resources, err := h.store.ListResources(c.Request.Context(), tenantID, types...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}

// DeactivateResource handles POST /api/resources/:id/deactivate. Resources
// are never deleted, so historical reservations keep a valid reference.
func (h *Handler) DeactivateResource(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	err := h.store.SetResourceActive(c.Request.Context(), req.TenantID, c.Param("id"), false)
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

type createBlackoutRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
	Start    string `json:"start" binding:"required"`
	End      string `json:"end" binding:"required"`
	Reason   string `json:"reason"`
}

// CreateBlackout handles POST /api/resources/:id/blackouts. A blackout makes
// the resource read as fully occupied for the window.
func (h *Handler) CreateBlackout(c *gin.Context) {
	var req createBlackoutRequest
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
	if !start.Before(end) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "start must be before end"})
		return
	}

	ctx := c.Request.Context()
	resourceID := c.Param("id")
	if _, err := h.store.GetResource(ctx, req.TenantID, resourceID); err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	blackout := &model.MaintenanceBlackout{
		ID:         uuid.NewString(),
		TenantID:   req.TenantID,
		ResourceID: resourceID,
		StartAt:    start,
		EndAt:      end,
		Reason:     req.Reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.store.CreateBlackout(ctx, blackout); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"blackout": blackout})
}
