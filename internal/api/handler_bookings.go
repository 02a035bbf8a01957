package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/booking"
	"fleetlink-backend/internal/model"
	"fleetlink-backend/internal/store"
)

// PostBooking handles POST /api/bookings.
func (h *Handler) PostBooking(c *gin.Context) {
	var in booking.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.engine.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBookings handles GET /api/bookings?customerId=... — a paginated view
// of one customer's bookings.
func (h *Handler) GetBookings(c *gin.Context) {
	h.listCustomerBookings(c, c.Query("customerId"))
}

// GetCustomerBookings handles GET /api/bookings/customer/:id.
func (h *Handler) GetCustomerBookings(c *gin.Context) {
	h.listCustomerBookings(c, c.Param("id"))
}

func (h *Handler) listCustomerBookings(c *gin.Context, customerID string) {
	var f store.CustomerBookingFilter
	f.Status = model.BookingStatus(c.Query("status"))
	var err error
	if f.Limit, err = intQuery(c, "limit", 10); err != nil {
		abortWithError(c, err)
		return
	}
	if f.Offset, err = intQuery(c, "offset", 0); err != nil {
		abortWithError(c, err)
		return
	}

	page, err := h.engine.ListCustomerBookings(c.Request.Context(), customerID, f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetBookingAnalytics handles GET /api/bookings/analytics.
func (h *Handler) GetBookingAnalytics(c *gin.Context) {
	r, err := parseTimeRange(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	a, err := h.engine.Analytics(c.Request.Context(), r)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type patchBookingRequest struct {
	Status model.BookingStatus `json:"status"`
	Notes  string              `json:"notes"`
	Reason string              `json:"reason"`
}

// PatchBooking handles PATCH /api/bookings/:id. Transitioning to cancelled
// goes through the cancellation rules (cutoff window, terminal states); any
// other status goes through the plain status update.
func (h *Handler) PatchBooking(c *gin.Context) {
	var req patchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		abortWithError(c, apperr.New(apperr.MissingFields, "status is required"))
		return
	}

	var (
		b   *model.Booking
		err error
	)
	if req.Status == model.BookingCancelled {
		b, err = h.engine.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	} else {
		b, err = h.engine.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Notes)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBooking handles DELETE /api/bookings/:id. Only cancelled bookings
// are deletable.
func (h *Handler) DeleteBooking(c *gin.Context) {
	if err := h.engine.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking deleted"})
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Newf(apperr.Validation, "%s must be an integer", key)
	}
	return n, nil
}
