package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fleetlink-backend/config"
	"fleetlink-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), int(cfg.RateLimitPerSec), cfg.RequestIPHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Availability is registered before the :id routes and is never
		// cached: its result depends on the current booking set.
		api.GET("/vehicles/available", h.GetAvailableVehicles)

		api.POST("/vehicles", h.PostVehicle)
		api.GET("/vehicles", caching, h.GetVehicles)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.PATCH("/vehicles/:id", h.PatchVehicle)
		api.DELETE("/vehicles/:id", h.DeleteVehicle)
		api.GET("/vehicles/:id/utilization", caching, h.GetVehicleUtilization)

		api.POST("/bookings", h.PostBooking)
		api.GET("/bookings", h.GetBookings)
		api.GET("/bookings/analytics", h.GetBookingAnalytics)
		api.GET("/bookings/customer/:id", h.GetCustomerBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.PATCH("/bookings/:id", h.PatchBooking)
		api.DELETE("/bookings/:id", h.DeleteBooking)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
