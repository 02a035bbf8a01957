package model

import "time"

// VehicleStatus is the lifecycle state of a vehicle.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

// ValidVehicleStatus reports whether s is one of the known statuses.
func ValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case VehicleActive, VehicleMaintenance, VehicleRetired:
		return true
	}
	return false
}

// VehicleType is the weight class derived from capacity; it is computed,
// never stored.
type VehicleType string

const (
	VehicleTypeLight  VehicleType = "light"  // <= 1000 kg
	VehicleTypeMedium VehicleType = "medium" // <= 5000 kg
	VehicleTypeHeavy  VehicleType = "heavy"  // > 5000 kg
)

// Vehicle represents a fleet vehicle. Vehicles are never hard-deleted;
// retirement is a status transition.
type Vehicle struct {
	ID                 string        `gorm:"primaryKey;size:36" json:"id"`
	Name               string        `gorm:"size:100;not null" json:"name"`
	CapacityKg         int           `gorm:"not null;index" json:"capacityKg"`
	Tyres              int           `gorm:"not null" json:"tyres"`
	Status             VehicleStatus `gorm:"type:varchar(16);index;not null;default:'active'" json:"status"`
	RegistrationNumber string        `gorm:"uniqueIndex;size:64;not null" json:"registrationNumber"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Type returns the weight class for the vehicle's capacity.
func (v *Vehicle) Type() VehicleType {
	switch {
	case v.CapacityKg <= 1000:
		return VehicleTypeLight
	case v.CapacityKg <= 5000:
		return VehicleTypeMedium
	default:
		return VehicleTypeHeavy
	}
}
