package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/booking"
	"fleetlink-backend/internal/store"
	"fleetlink-backend/internal/vehicle"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	directory *vehicle.Directory
	engine    *booking.Engine
	store     store.Store
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(directory *vehicle.Directory, engine *booking.Engine, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		directory: directory,
		engine:    engine,
		store:     s,
		webpush:   webpushOptions,
	}
}

// abortWithError maps a service failure to its HTTP status and aborts.
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": err.Error()})
}

// parseTimeRange reads optional from/to RFC3339 query params into a store
// time range. Returns nil when neither bound is present.
func parseTimeRange(c *gin.Context) (*store.TimeRange, error) {
	fromRaw := c.Query("from")
	toRaw := c.Query("to")
	if fromRaw == "" && toRaw == "" {
		return nil, nil
	}

	var r store.TimeRange
	if fromRaw != "" {
		t, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return nil, apperr.Newf(apperr.InvalidTimeFormat, "invalid 'from' timestamp %q: use RFC3339", fromRaw)
		}
		r.From = t
	}
	if toRaw != "" {
		t, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return nil, apperr.Newf(apperr.InvalidTimeFormat, "invalid 'to' timestamp %q: use RFC3339", toRaw)
		}
		r.To = t
	}
	return &r, nil
}
