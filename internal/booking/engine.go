// Package booking implements the availability search, conflict-checked
// booking creation, and the booking status lifecycle.
package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/model"
	"fleetlink-backend/internal/route"
	"fleetlink-backend/internal/store"
)

// Notifier receives booking ids whose status changed, for asynchronous
// customer notification. Implementations must not block.
type Notifier interface {
	Dispatch(bookingID string)
}

// Engine orchestrates the route estimator, vehicle directory and overlap
// query to search availability and create bookings.
type Engine struct {
	store              store.Store
	notifier           Notifier
	cancellationCutoff time.Duration

	// vehicleLocks serializes booking attempts per vehicle so the overlap
	// re-check and the insert behave as one atomic step. Without it two
	// concurrent requests could both pass the re-check before either
	// writes.
	mu           sync.Mutex
	vehicleLocks map[string]*sync.Mutex
}

// NewEngine creates a booking engine. notifier may be nil.
func NewEngine(s store.Store, notifier Notifier, cancellationCutoff time.Duration) *Engine {
	if cancellationCutoff <= 0 {
		cancellationCutoff = 2 * time.Hour
	}
	return &Engine{
		store:              s,
		notifier:           notifier,
		cancellationCutoff: cancellationCutoff,
		vehicleLocks:       make(map[string]*sync.Mutex),
	}
}

func (e *Engine) vehicleLock(vehicleID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.vehicleLocks[vehicleID]
	if !ok {
		l = &sync.Mutex{}
		e.vehicleLocks[vehicleID] = l
	}
	return l
}

func (e *Engine) notify(bookingID string) {
	if e.notifier != nil {
		e.notifier.Dispatch(bookingID)
	}
}

// SearchCriteria are the inputs for an availability search. All fields are
// required; StartTime is RFC3339.
type SearchCriteria struct {
	CapacityRequired int    `form:"capacityRequired" json:"capacityRequired"`
	FromPincode      string `form:"fromPincode" json:"fromPincode"`
	ToPincode        string `form:"toPincode" json:"toPincode"`
	StartTime        string `form:"startTime" json:"startTime"`
}

// AvailableVehicle is one availability search result: the vehicle enriched
// with the ride estimate and the echoed search window.
type AvailableVehicle struct {
	model.Vehicle
	VehicleType                model.VehicleType `json:"vehicleType"`
	EstimatedRideDurationHours float64           `json:"estimatedRideDurationHours"`
	RouteInfo                  route.Info        `json:"routeInfo"`
	StartTime                  time.Time         `json:"startTime"`
	EndTime                    time.Time         `json:"endTime"`
}

// FindAvailableVehicles lists active vehicles with sufficient capacity that
// have no active booking overlapping the requested window. Candidate order
// is preserved in the result.
func (e *Engine) FindAvailableVehicles(ctx context.Context, c SearchCriteria) ([]AvailableVehicle, error) {
	if c.CapacityRequired <= 0 || strings.TrimSpace(c.FromPincode) == "" ||
		strings.TrimSpace(c.ToPincode) == "" || strings.TrimSpace(c.StartTime) == "" {
		return nil, apperr.New(apperr.MissingFields, "capacityRequired, fromPincode, toPincode and startTime are required")
	}

	window, err := e.resolveWindow(c.FromPincode, c.ToPincode, c.StartTime)
	if err != nil {
		return nil, apperr.Wrap("Error searching vehicles", err)
	}

	candidates, err := e.store.ListVehicles(ctx, store.VehicleFilter{
		Status:        model.VehicleActive,
		MinCapacityKg: c.CapacityRequired,
	})
	if err != nil {
		return nil, apperr.Wrap("Error searching vehicles", err)
	}
	if len(candidates) == 0 {
		return []AvailableVehicle{}, nil
	}

	results := make([]AvailableVehicle, 0, len(candidates))
	for _, v := range candidates {
		overlaps, err := e.store.FindOverlappingBookings(ctx, v.ID, window.start, window.end, "")
		if err != nil {
			return nil, apperr.Wrap("Error searching vehicles", err)
		}
		if len(overlaps) > 0 {
			continue
		}

		info, err := route.EstimateRoute(c.FromPincode, c.ToPincode, v.CapacityKg)
		if err != nil {
			return nil, apperr.Wrap("Error searching vehicles", err)
		}
		results = append(results, AvailableVehicle{
			Vehicle:                    v,
			VehicleType:                v.Type(),
			EstimatedRideDurationHours: window.durationHours,
			RouteInfo:                  info,
			StartTime:                  window.start,
			EndTime:                    window.end,
		})
	}
	return results, nil
}

// CreateInput carries the fields for creating a booking. All are required;
// StartTime is RFC3339.
type CreateInput struct {
	VehicleID   string `json:"vehicleId"`
	CustomerID  string `json:"customerId"`
	FromPincode string `json:"fromPincode"`
	ToPincode   string `json:"toPincode"`
	StartTime   string `json:"startTime"`
}

// Create books a vehicle for the requested window. The overlap check is
// re-run here, under the per-vehicle lock, so a vehicle booked between a
// prior availability search and this call is rejected with SlotUnavailable.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*model.Booking, error) {
	if strings.TrimSpace(in.VehicleID) == "" || strings.TrimSpace(in.CustomerID) == "" ||
		strings.TrimSpace(in.FromPincode) == "" || strings.TrimSpace(in.ToPincode) == "" ||
		strings.TrimSpace(in.StartTime) == "" {
		return nil, apperr.New(apperr.MissingFields, "vehicleId, customerId, fromPincode, toPincode and startTime are required")
	}

	v, err := e.store.GetVehicle(ctx, in.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "vehicle %s not found", in.VehicleID)
		}
		return nil, apperr.Wrap("Error creating booking", err)
	}
	if v.Status != model.VehicleActive {
		return nil, apperr.Newf(apperr.VehicleNotActive, "vehicle %s is %s, not active", v.ID, v.Status)
	}

	window, err := e.resolveWindow(in.FromPincode, in.ToPincode, in.StartTime)
	if err != nil {
		return nil, apperr.Wrap("Error creating booking", err)
	}

	lock := e.vehicleLock(v.ID)
	lock.Lock()
	defer lock.Unlock()

	overlaps, err := e.store.FindOverlappingBookings(ctx, v.ID, window.start, window.end, "")
	if err != nil {
		return nil, apperr.Wrap("Error creating booking", err)
	}
	if len(overlaps) > 0 {
		return nil, apperr.New(apperr.SlotUnavailable, "Vehicle is no longer available for the requested time slot")
	}

	b := &model.Booking{
		ID:                         uuid.NewString(),
		VehicleID:                  v.ID,
		CustomerID:                 strings.TrimSpace(in.CustomerID),
		FromPincode:                in.FromPincode,
		ToPincode:                  in.ToPincode,
		StartTime:                  window.start,
		EndTime:                    window.end,
		EstimatedRideDurationHours: window.durationHours,
		Status:                     model.BookingConfirmed,
	}
	if err := e.store.CreateBooking(ctx, b); err != nil {
		return nil, apperr.Wrap("Error creating booking", err)
	}

	b.Vehicle = *v
	e.notify(b.ID)
	return b, nil
}

// rideWindow is a validated, estimator-derived booking window.
type rideWindow struct {
	start         time.Time
	end           time.Time
	durationHours float64
}

// resolveWindow validates the pincodes and start time and derives the
// booking window from the route estimate. The start must be strictly in
// the future.
func (e *Engine) resolveWindow(from, to, startRaw string) (rideWindow, error) {
	if !route.IsValidPincode(from) {
		return rideWindow{}, apperr.Newf(apperr.InvalidPincode, "invalid from pincode: %q", from)
	}
	if !route.IsValidPincode(to) {
		return rideWindow{}, apperr.Newf(apperr.InvalidPincode, "invalid to pincode: %q", to)
	}

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return rideWindow{}, apperr.Newf(apperr.InvalidTimeFormat, "invalid start time %q: use RFC3339", startRaw)
	}
	if !start.After(time.Now()) {
		return rideWindow{}, apperr.New(apperr.PastStartTime, "start time must be in the future")
	}

	hours, err := route.EstimateDuration(from, to)
	if err != nil {
		return rideWindow{}, err
	}
	end, err := route.EstimateEndTime(startRaw, hours)
	if err != nil {
		return rideWindow{}, err
	}
	return rideWindow{start: start, end: end, durationHours: hours}, nil
}
