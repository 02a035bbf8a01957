package model

import "time"

// BookingStatus is the lifecycle state of a booking (persisted as a string).
type BookingStatus string

const (
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// ValidBookingStatus reports whether s is one of the known statuses.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// ActiveBookingStatuses are the statuses that count toward overlap checks
// and retirement blocking.
var ActiveBookingStatuses = []BookingStatus{BookingConfirmed, BookingInProgress}

// Booking reserves a vehicle for a customer over a [StartTime, EndTime)
// window. Invariant: active bookings on the same vehicle never overlap.
type Booking struct {
	ID                         string        `gorm:"primaryKey;size:36" json:"id"`
	VehicleID                  string        `gorm:"index;size:36;not null" json:"vehicleId"`
	CustomerID                 string        `gorm:"index;size:64;not null" json:"customerId"`
	FromPincode                string        `gorm:"size:6;not null" json:"fromPincode"`
	ToPincode                  string        `gorm:"size:6;not null" json:"toPincode"`
	StartTime                  time.Time     `gorm:"index;not null" json:"startTime"`
	EndTime                    time.Time     `gorm:"index;not null" json:"endTime"`
	EstimatedRideDurationHours float64       `gorm:"not null" json:"estimatedRideDurationHours"`
	Status                     BookingStatus `gorm:"type:varchar(16);index;not null;default:'confirmed'" json:"status"`
	ActualStartTime            *time.Time    `json:"actualStartTime,omitempty"`
	ActualEndTime              *time.Time    `json:"actualEndTime,omitempty"`
	Notes                      string        `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt                  time.Time     `json:"createdAt"`
	UpdatedAt                  time.Time     `json:"updatedAt"`

	// Associations
	Vehicle Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
}

// IsActive reports whether the booking counts toward overlap checks.
func (b *Booking) IsActive() bool {
	return b.Status == BookingConfirmed || b.Status == BookingInProgress
}
