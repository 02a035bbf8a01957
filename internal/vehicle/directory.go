// Package vehicle implements the vehicle directory: registration, listing,
// status lifecycle and utilization reporting. Vehicles are soft-deleted via
// retirement, never removed.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/model"
	"fleetlink-backend/internal/store"
)

const (
	maxNameLen    = 100
	minCapacityKg = 1
	maxCapacityKg = 50000
	minTyres      = 2
	maxTyres      = 18

	registrationPrefix = "FL"
)

// Directory exposes vehicle CRUD and lifecycle operations over the store.
type Directory struct {
	store store.Store
}

// NewDirectory creates a vehicle directory backed by s.
func NewDirectory(s store.Store) *Directory {
	return &Directory{store: s}
}

// CreateInput carries the fields for registering a vehicle.
type CreateInput struct {
	Name               string `json:"name"`
	CapacityKg         int    `json:"capacityKg"`
	Tyres              int    `json:"tyres"`
	RegistrationNumber string `json:"registrationNumber"`
}

// Create validates and persists a new vehicle. When no registration number
// is supplied one is generated; uniqueness is enforced by the store.
func (d *Directory) Create(ctx context.Context, in CreateInput) (*model.Vehicle, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, "vehicle name is required")
	}
	if len(name) > maxNameLen {
		return nil, apperr.Newf(apperr.Validation, "vehicle name exceeds %d characters", maxNameLen)
	}
	if in.CapacityKg < minCapacityKg || in.CapacityKg > maxCapacityKg {
		return nil, apperr.Newf(apperr.Validation, "capacityKg must be between %d and %d", minCapacityKg, maxCapacityKg)
	}
	if in.Tyres < minTyres || in.Tyres > maxTyres {
		return nil, apperr.Newf(apperr.Validation, "tyres must be between %d and %d", minTyres, maxTyres)
	}

	regNo := strings.TrimSpace(in.RegistrationNumber)
	if regNo == "" {
		regNo = generateRegistrationNumber()
	} else {
		exists, err := d.store.VehicleRegistrationExists(ctx, regNo)
		if err != nil {
			return nil, apperr.Wrap("Error creating vehicle", err)
		}
		if exists {
			return nil, apperr.Newf(apperr.DuplicateRegistration, "registration number %q already exists", regNo)
		}
	}

	v := &model.Vehicle{
		ID:                 uuid.NewString(),
		Name:               name,
		CapacityKg:         in.CapacityKg,
		Tyres:              in.Tyres,
		Status:             model.VehicleActive,
		RegistrationNumber: regNo,
	}

	if err := d.store.CreateVehicle(ctx, v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Newf(apperr.DuplicateRegistration, "registration number %q already exists", regNo)
		}
		return nil, apperr.Wrap("Error creating vehicle", err)
	}
	return v, nil
}

// List returns vehicles matching the filter, newest first.
func (d *Directory) List(ctx context.Context, f store.VehicleFilter) ([]model.Vehicle, error) {
	if f.Status != "" && !model.ValidVehicleStatus(f.Status) {
		return nil, apperr.Newf(apperr.Validation, "unknown vehicle status %q", f.Status)
	}
	vehicles, err := d.store.ListVehicles(ctx, f)
	if err != nil {
		return nil, apperr.Wrap("Error listing vehicles", err)
	}
	return vehicles, nil
}

// Get fetches a vehicle by id.
func (d *Directory) Get(ctx context.Context, id string) (*model.Vehicle, error) {
	v, err := d.store.GetVehicle(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "vehicle %s not found", id)
		}
		return nil, apperr.Wrap("Error fetching vehicle", err)
	}
	return v, nil
}

// UpdateStatus moves a vehicle to the given lifecycle status.
func (d *Directory) UpdateStatus(ctx context.Context, id string, status model.VehicleStatus) (*model.Vehicle, error) {
	if !model.ValidVehicleStatus(status) {
		return nil, apperr.Newf(apperr.Validation, "unknown vehicle status %q", status)
	}
	v, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Status = status
	if err := d.store.SaveVehicle(ctx, v); err != nil {
		return nil, apperr.Wrap("Error updating vehicle status", err)
	}
	return v, nil
}

// Retire soft-deletes a vehicle. It is refused while the vehicle still has
// confirmed or in-progress bookings.
func (d *Directory) Retire(ctx context.Context, id string) (*model.Vehicle, error) {
	v, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := d.store.CountActiveBookings(ctx, id)
	if err != nil {
		return nil, apperr.Wrap("Error checking vehicle bookings", err)
	}
	if active > 0 {
		return nil, apperr.Newf(apperr.HasActiveBookings, "vehicle %s has %d active booking(s)", id, active)
	}

	v.Status = model.VehicleRetired
	if err := d.store.SaveVehicle(ctx, v); err != nil {
		return nil, apperr.Wrap("Error retiring vehicle", err)
	}
	return v, nil
}

// Utilization summarizes a vehicle's booking history, optionally limited to
// bookings created inside the given range.
type Utilization struct {
	VehicleID        string                      `json:"vehicleId"`
	TotalBookings    int                         `json:"totalBookings"`
	CountsByStatus   map[model.BookingStatus]int `json:"countsByStatus"`
	TotalHoursBooked float64                     `json:"totalHoursBooked"`
	AverageRideHours float64                     `json:"averageRideHours"`
}

// Utilization reports booking counts and hours for one vehicle. Total hours
// sum over every fetched booking regardless of status, cancelled included.
func (d *Directory) Utilization(ctx context.Context, id string, r *store.TimeRange) (*Utilization, error) {
	if _, err := d.Get(ctx, id); err != nil {
		return nil, err
	}

	bookings, err := d.store.BookingsForVehicle(ctx, id, r)
	if err != nil {
		return nil, apperr.Wrap("Error fetching vehicle bookings", err)
	}

	u := &Utilization{
		VehicleID:      id,
		TotalBookings:  len(bookings),
		CountsByStatus: make(map[model.BookingStatus]int),
	}
	for _, b := range bookings {
		u.CountsByStatus[b.Status]++
		u.TotalHoursBooked += b.EstimatedRideDurationHours
	}
	if len(bookings) > 0 {
		u.AverageRideHours = u.TotalHoursBooked / float64(len(bookings))
	}
	return u, nil
}

// generateRegistrationNumber builds a fallback registration number from the
// current time plus a random suffix. Collisions are caught by the unique
// index on the column.
func generateRegistrationNumber() string {
	return fmt.Sprintf("%s-%d-%04d", registrationPrefix, time.Now().UnixMilli(), rand.Intn(10000))
}
