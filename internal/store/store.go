package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleetlink-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, f VehicleFilter) ([]model.Vehicle, error)
	SaveVehicle(ctx context.Context, v *model.Vehicle) error
	VehicleRegistrationExists(ctx context.Context, registrationNumber string) (bool, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	SaveBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	FindOverlappingBookings(ctx context.Context, vehicleID string, start, end time.Time, excludeBookingID string) ([]model.Booking, error)
	CountActiveBookings(ctx context.Context, vehicleID string) (int64, error)
	BookingsForVehicle(ctx context.Context, vehicleID string, r *TimeRange) ([]model.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string, f CustomerBookingFilter) ([]model.Booking, int64, error)
	AggregateBookings(ctx context.Context, r *TimeRange) ([]StatusAggregate, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForCustomer(ctx context.Context, customerID string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for callers that need raw access
// (migrations, transactions spanning several entities).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *gormStore) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *gormStore) ListVehicles(ctx context.Context, f VehicleFilter) ([]model.Vehicle, error) {
	q := s.db.WithContext(ctx).Model(&model.Vehicle{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MinCapacityKg > 0 {
		q = q.Where("capacity_kg >= ?", f.MinCapacityKg)
	}
	var vehicles []model.Vehicle
	if err := q.Order("created_at DESC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (s *gormStore) SaveVehicle(ctx context.Context, v *model.Vehicle) error {
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *gormStore) VehicleRegistrationExists(ctx context.Context, registrationNumber string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Vehicle{}).
		Where("registration_number = ?", registrationNumber).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"customer_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) SubscriptionsForCustomer(ctx context.Context, customerID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
