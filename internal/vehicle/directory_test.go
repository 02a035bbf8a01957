package vehicle

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/model"
	"fleetlink-backend/internal/store"
)

func newTestDirectory(t *testing.T) (*Directory, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Vehicle{}, &model.Booking{}))
	return NewDirectory(store.NewGormStore(db)), db
}

func TestDirectoryCreate(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	t.Run("Generates registration number when absent", func(t *testing.T) {
		v, err := d.Create(ctx, CreateInput{Name: "Tata Ace", CapacityKg: 750, Tyres: 4})
		require.NoError(t, err)
		assert.NotEmpty(t, v.ID)
		assert.NotEmpty(t, v.RegistrationNumber)
		assert.True(t, strings.HasPrefix(v.RegistrationNumber, "FL-"))
		assert.Equal(t, model.VehicleActive, v.Status)
		assert.Equal(t, model.VehicleTypeLight, v.Type())
	})

	t.Run("Duplicate registration is rejected", func(t *testing.T) {
		_, err := d.Create(ctx, CreateInput{Name: "First", CapacityKg: 1000, Tyres: 4, RegistrationNumber: "KA01-1234"})
		require.NoError(t, err)

		_, err = d.Create(ctx, CreateInput{Name: "Second", CapacityKg: 1000, Tyres: 4, RegistrationNumber: "KA01-1234"})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.DuplicateRegistration))
	})

	t.Run("Shape validation", func(t *testing.T) {
		testCases := []struct {
			name string
			in   CreateInput
		}{
			{"Empty name", CreateInput{CapacityKg: 1000, Tyres: 4}},
			{"Name too long", CreateInput{Name: strings.Repeat("x", 101), CapacityKg: 1000, Tyres: 4}},
			{"Zero capacity", CreateInput{Name: "v", CapacityKg: 0, Tyres: 4}},
			{"Capacity too large", CreateInput{Name: "v", CapacityKg: 50001, Tyres: 4}},
			{"Too few tyres", CreateInput{Name: "v", CapacityKg: 1000, Tyres: 1}},
			{"Too many tyres", CreateInput{Name: "v", CapacityKg: 1000, Tyres: 19}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := d.Create(ctx, tc.in)
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.Validation))
			})
		}
	})
}

func TestVehicleType(t *testing.T) {
	assert.Equal(t, model.VehicleTypeLight, (&model.Vehicle{CapacityKg: 1000}).Type())
	assert.Equal(t, model.VehicleTypeMedium, (&model.Vehicle{CapacityKg: 1001}).Type())
	assert.Equal(t, model.VehicleTypeMedium, (&model.Vehicle{CapacityKg: 5000}).Type())
	assert.Equal(t, model.VehicleTypeHeavy, (&model.Vehicle{CapacityKg: 5001}).Type())
}

func TestDirectoryGetAndUpdateStatus(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	v, err := d.Create(ctx, CreateInput{Name: "Eicher", CapacityKg: 3000, Tyres: 6})
	require.NoError(t, err)

	got, err := d.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = d.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	updated, err := d.UpdateStatus(ctx, v.ID, model.VehicleMaintenance)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleMaintenance, updated.Status)

	_, err = d.UpdateStatus(ctx, v.ID, "scrapped")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = d.UpdateStatus(ctx, "missing", model.VehicleActive)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDirectoryRetire(t *testing.T) {
	d, db := newTestDirectory(t)
	ctx := context.Background()

	v, err := d.Create(ctx, CreateInput{Name: "Ashok Leyland", CapacityKg: 8000, Tyres: 10})
	require.NoError(t, err)

	start := time.Now().Add(24 * time.Hour)
	b := &model.Booking{
		ID:          "bk-1",
		VehicleID:   v.ID,
		CustomerID:  "cust-1",
		FromPincode: "110001",
		ToPincode:   "110005",
		StartTime:   start,
		EndTime:     start.Add(4 * time.Hour),
		Status:      model.BookingConfirmed,
	}
	require.NoError(t, db.Create(b).Error)

	_, err = d.Retire(ctx, v.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.HasActiveBookings))

	// Once the booking is no longer active, retirement succeeds.
	require.NoError(t, db.Model(&model.Booking{ID: "bk-1"}).Update("status", model.BookingCancelled).Error)

	retired, err := d.Retire(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleRetired, retired.Status)

	// The record is still there: retirement is a soft delete.
	got, err := d.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleRetired, got.Status)
}

func TestDirectoryUtilization(t *testing.T) {
	d, db := newTestDirectory(t)
	ctx := context.Background()

	v, err := d.Create(ctx, CreateInput{Name: "Mahindra", CapacityKg: 1500, Tyres: 4})
	require.NoError(t, err)

	base := time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)
	seed := []struct {
		id     string
		hours  float64
		status model.BookingStatus
	}{
		{"bk-1", 2, model.BookingConfirmed},
		{"bk-2", 4, model.BookingCompleted},
		{"bk-3", 6, model.BookingCancelled},
	}
	for i, sb := range seed {
		start := base.Add(time.Duration(i*12) * time.Hour)
		require.NoError(t, db.Create(&model.Booking{
			ID:                         sb.id,
			VehicleID:                  v.ID,
			CustomerID:                 "cust-1",
			FromPincode:                "110001",
			ToPincode:                  "110005",
			StartTime:                  start,
			EndTime:                    start.Add(time.Duration(sb.hours) * time.Hour),
			EstimatedRideDurationHours: sb.hours,
			Status:                     sb.status,
		}).Error)
	}

	u, err := d.Utilization(ctx, v.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, u.TotalBookings)
	assert.Equal(t, 1, u.CountsByStatus[model.BookingConfirmed])
	assert.Equal(t, 1, u.CountsByStatus[model.BookingCompleted])
	assert.Equal(t, 1, u.CountsByStatus[model.BookingCancelled])
	// Hours sum over every booking, cancelled included.
	assert.InDelta(t, 12.0, u.TotalHoursBooked, 1e-9)
	assert.InDelta(t, 4.0, u.AverageRideHours, 1e-9)

	_, err = d.Utilization(ctx, "missing", nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDirectoryUtilization_NoBookings(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	v, err := d.Create(ctx, CreateInput{Name: "Idle Truck", CapacityKg: 2000, Tyres: 6})
	require.NoError(t, err)

	u, err := d.Utilization(ctx, v.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, u.TotalBookings)
	assert.Zero(t, u.TotalHoursBooked)
	assert.Zero(t, u.AverageRideHours)
}
