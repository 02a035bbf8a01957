package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/booking"
	"fleetlink-backend/internal/model"
	"fleetlink-backend/internal/store"
	"fleetlink-backend/internal/vehicle"
)

// vehicleResponse is a vehicle plus its computed weight class.
type vehicleResponse struct {
	model.Vehicle
	VehicleType model.VehicleType `json:"vehicleType"`
}

func toVehicleResponse(v *model.Vehicle) vehicleResponse {
	return vehicleResponse{Vehicle: *v, VehicleType: v.Type()}
}

// PostVehicle handles POST /api/vehicles.
func (h *Handler) PostVehicle(c *gin.Context) {
	var in vehicle.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.directory.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVehicleResponse(v))
}

// GetVehicles handles GET /api/vehicles with optional status and
// minCapacity filters.
func (h *Handler) GetVehicles(c *gin.Context) {
	var f store.VehicleFilter
	f.Status = model.VehicleStatus(c.Query("status"))
	if raw := c.Query("minCapacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "minCapacity must be an integer"})
			return
		}
		f.MinCapacityKg = n
	}

	vehicles, err := h.directory.List(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]vehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		out = append(out, toVehicleResponse(&vehicles[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetAvailableVehicles handles GET /api/vehicles/available.
func (h *Handler) GetAvailableVehicles(c *gin.Context) {
	var criteria booking.SearchCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.engine.FindAvailableVehicles(c.Request.Context(), criteria)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetVehicle handles GET /api/vehicles/:id.
func (h *Handler) GetVehicle(c *gin.Context) {
	v, err := h.directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

type patchVehicleRequest struct {
	Status model.VehicleStatus `json:"status"`
}

// PatchVehicle handles PATCH /api/vehicles/:id (status update).
func (h *Handler) PatchVehicle(c *gin.Context) {
	var req patchVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == "" {
		abortWithError(c, apperr.New(apperr.MissingFields, "status is required"))
		return
	}

	v, err := h.directory.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

// DeleteVehicle handles DELETE /api/vehicles/:id. FleetLink never removes
// vehicle records; this retires the vehicle.
func (h *Handler) DeleteVehicle(c *gin.Context) {
	v, err := h.directory.Retire(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVehicleResponse(v))
}

// GetVehicleUtilization handles GET /api/vehicles/:id/utilization.
func (h *Handler) GetVehicleUtilization(c *gin.Context) {
	r, err := parseTimeRange(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	u, err := h.directory.Utilization(c.Request.Context(), c.Param("id"), r)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
