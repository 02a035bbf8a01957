package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fleetlink-backend/internal/model"
)

func boundByCreation(q *gorm.DB, r *TimeRange) *gorm.DB {
	if r == nil {
		return q
	}
	if !r.From.IsZero() {
		q = q.Where("created_at >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where("created_at <= ?", r.To)
	}
	return q
}

func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).Preload("Vehicle").First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *gormStore) SaveBooking(ctx context.Context, b *model.Booking) error {
	return s.db.WithContext(ctx).Omit("Vehicle").Save(b).Error
}

func (s *gormStore) DeleteBooking(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.Booking{ID: id}).Error
}

// FindOverlappingBookings returns the active bookings on vehicleID whose
// [start_time, end_time) window intersects [start, end). Half-open interval
// semantics: windows that merely touch at an endpoint do not conflict.
func (s *gormStore) FindOverlappingBookings(ctx context.Context, vehicleID string, start, end time.Time, excludeBookingID string) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Where("status IN ?", model.ActiveBookingStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeBookingID != "" {
		q = q.Where("id <> ?", excludeBookingID)
	}

	var bookings []model.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *gormStore) CountActiveBookings(ctx context.Context, vehicleID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("vehicle_id = ?", vehicleID).
		Where("status IN ?", model.ActiveBookingStatuses).
		Count(&count).Error
	return count, err
}

func (s *gormStore) BookingsForVehicle(ctx context.Context, vehicleID string, r *TimeRange) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID)
	q = boundByCreation(q, r)

	var bookings []model.Booking
	if err := q.Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *gormStore) ListCustomerBookings(ctx context.Context, customerID string, f CustomerBookingFilter) ([]model.Booking, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{}).Where("customer_id = ?", customerID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []model.Booking
	if err := q.Preload("Vehicle").
		Order("created_at DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// AggregateBookings groups bookings by status with counts and summed
// estimated hours, optionally bounded by creation time.
func (s *gormStore) AggregateBookings(ctx context.Context, r *TimeRange) ([]StatusAggregate, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(estimated_ride_duration_hours), 0) as total_hours").
		Group("status")
	q = boundByCreation(q, r)

	var rows []StatusAggregate
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
