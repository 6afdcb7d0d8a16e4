package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"resort-booking-backend/config"
	"resort-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router around the handler.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Short-lived response cache for read endpoints; availability answers
	// are advisory, commits always re-check.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/availability", caching, handler.GetAvailability)

		api.POST("/reservations", handler.CreateReservation)
		api.GET("/reservations", handler.ListReservations)
		api.GET("/reservations/:id", handler.GetReservation)
		api.POST("/reservations/:id/cancel", handler.CancelReservation)
		api.POST("/reservations/:id/checkin", handler.CheckInReservation)
		api.POST("/reservations/:id/checkout", handler.CheckOutReservation)
		api.POST("/reservations/:id/noshow", handler.NoShowReservation)

		api.POST("/waitlist", handler.JoinWaitlist)
		api.GET("/waitlist/:id", handler.GetWaitlistEntry)
		api.POST("/waitlist/:id/confirm", handler.ConfirmWaitlistOffer)

		api.POST("/resources", handler.CreateResource)
		api.GET("/resources", caching, handler.ListResources)
		api.POST("/resources/:id/deactivate", handler.DeactivateResource)
		api.POST("/resources/:id/blackouts", handler.CreateBlackout)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
