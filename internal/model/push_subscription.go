package model

import "time"

// PushSubscription holds a customer's browser push subscription. A customer
// may hold several (one per browser); all of them are notified when one of
// the customer's bookings changes status.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	CustomerID string    `gorm:"index;size:64;not null"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
