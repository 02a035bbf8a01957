package store

import (
	"time"

	"fleetlink-backend/internal/model"
)

// VehicleFilter narrows a vehicle listing.
type VehicleFilter struct {
	Status        model.VehicleStatus // empty = any
	MinCapacityKg int                 // 0 = any
}

// TimeRange bounds a query by record creation time. A zero bound is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// CustomerBookingFilter paginates a customer's booking history.
type CustomerBookingFilter struct {
	Status model.BookingStatus // empty = any
	Limit  int
	Offset int
}

// StatusAggregate is one row of a per-status booking aggregation.
type StatusAggregate struct {
	Status     model.BookingStatus
	Count      int64
	TotalHours float64
}
