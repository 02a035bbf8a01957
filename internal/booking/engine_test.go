package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
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

// recordingNotifier captures dispatched booking ids.
type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNotifier) Dispatch(bookingID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, bookingID)
}

func (n *recordingNotifier) dispatched() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.ids...)
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB, *recordingNotifier) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database stable under
	// concurrent test traffic.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Vehicle{}, &model.Booking{}))

	notifier := &recordingNotifier{}
	return NewEngine(store.NewGormStore(db), notifier, 2*time.Hour), db, notifier
}

func seedVehicle(t *testing.T, db *gorm.DB, id string, capacityKg int, status model.VehicleStatus) {
	t.Helper()
	require.NoError(t, db.Create(&model.Vehicle{
		ID:                 id,
		Name:               "Truck " + id,
		CapacityKg:         capacityKg,
		Tyres:              6,
		Status:             status,
		RegistrationNumber: "REG-" + id,
	}).Error)
}

func futureStart(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func TestFindAvailableVehicles_CapacityFilter(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()

	seedVehicle(t, db, "veh-a", 1000, model.VehicleActive)
	seedVehicle(t, db, "veh-b", 2000, model.VehicleActive)
	seedVehicle(t, db, "veh-c", 3000, model.VehicleMaintenance)

	results, err := e.FindAvailableVehicles(ctx, SearchCriteria{
		CapacityRequired: 1500,
		FromPincode:      "110001",
		ToPincode:        "110002",
		StartTime:        futureStart(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "veh-b", results[0].ID)
	assert.Equal(t, 1.0, results[0].EstimatedRideDurationHours)
	assert.Equal(t, results[0].StartTime.Add(time.Hour), results[0].EndTime)
	assert.Equal(t, "110001", results[0].RouteInfo.FromPincode)

	results, err = e.FindAvailableVehicles(ctx, SearchCriteria{
		CapacityRequired: 500,
		FromPincode:      "110001",
		ToPincode:        "110002",
		StartTime:        futureStart(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFindAvailableVehicles_Validation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	testCases := []struct {
		name     string
		criteria SearchCriteria
		kind     apperr.Kind
	}{
		{"Missing capacity", SearchCriteria{FromPincode: "110001", ToPincode: "110002", StartTime: futureStart(time.Hour * 24)}, apperr.MissingFields},
		{"Missing pincode", SearchCriteria{CapacityRequired: 500, ToPincode: "110002", StartTime: futureStart(time.Hour * 24)}, apperr.MissingFields},
		{"Bad pincode", SearchCriteria{CapacityRequired: 500, FromPincode: "11000", ToPincode: "110002", StartTime: futureStart(time.Hour * 24)}, apperr.InvalidPincode},
		{"Bad time", SearchCriteria{CapacityRequired: 500, FromPincode: "110001", ToPincode: "110002", StartTime: "yesterday"}, apperr.InvalidTimeFormat},
		{"Past time", SearchCriteria{CapacityRequired: 500, FromPincode: "110001", ToPincode: "110002", StartTime: "2020-01-01T00:00:00Z"}, apperr.PastStartTime},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.FindAvailableVehicles(ctx, tc.criteria)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tc.kind), "expected kind %v, got %v", tc.kind, apperr.KindOf(err))
		})
	}
}

func TestFindAvailableVehicles_NoCandidates(t *testing.T) {
	e, _, _ := newTestEngine(t)

	results, err := e.FindAvailableVehicles(context.Background(), SearchCriteria{
		CapacityRequired: 500,
		FromPincode:      "110001",
		ToPincode:        "110002",
		StartTime:        futureStart(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindAvailableVehicles_ExcludesOverlapping(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()

	seedVehicle(t, db, "veh-a", 1000, model.VehicleActive)

	start := futureStart(24 * time.Hour)
	_, err := e.Create(ctx, CreateInput{
		VehicleID:   "veh-a",
		CustomerID:  "cust-1",
		FromPincode: "110001",
		ToPincode:   "110003", // 2 hour ride
		StartTime:   start,
	})
	require.NoError(t, err)

	// Search over an intersecting window: the vehicle is excluded.
	results, err := e.FindAvailableVehicles(ctx, SearchCriteria{
		CapacityRequired: 500,
		FromPincode:      "110001",
		ToPincode:        "110002",
		StartTime:        futureStart(25 * time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, results)

	// A window starting exactly at the booked end does not conflict.
	bookedStart, _ := time.Parse(time.RFC3339, start)
	touching := bookedStart.Add(2 * time.Hour).Format(time.RFC3339)
	results, err = e.FindAvailableVehicles(ctx, SearchCriteria{
		CapacityRequired: 500,
		FromPincode:      "110001",
		ToPincode:        "110002",
		StartTime:        touching,
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestCreateBooking(t *testing.T) {
	e, db, notifier := newTestEngine(t)
	ctx := context.Background()

	seedVehicle(t, db, "veh-a", 1000, model.VehicleActive)

	start := futureStart(24 * time.Hour)
	b, err := e.Create(ctx, CreateInput{
		VehicleID:   "veh-a",
		CustomerID:  "cust-1",
		FromPincode: "110001",
		ToPincode:   "110002",
		StartTime:   start,
	})
	require.NoError(t, err)

	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, 1.0, b.EstimatedRideDurationHours)
	wantStart, _ := time.Parse(time.RFC3339, start)
	assert.True(t, b.StartTime.Equal(wantStart))
	assert.True(t, b.EndTime.Equal(wantStart.Add(time.Hour)))
	assert.Equal(t, "Truck veh-a", b.Vehicle.Name)
	assert.Equal(t, []string{b.ID}, notifier.dispatched())

	t.Run("Overlapping create is rejected", func(t *testing.T) {
		_, err := e.Create(ctx, CreateInput{
			VehicleID:   "veh-a",
			CustomerID:  "cust-2",
			FromPincode: "110001",
			ToPincode:   "110002",
			StartTime:   start,
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.SlotUnavailable))
		assert.Contains(t, err.Error(), "no longer available")
	})

	t.Run("Touching window is accepted", func(t *testing.T) {
		touching := b.EndTime.Format(time.RFC3339)
		b2, err := e.Create(ctx, CreateInput{
			VehicleID:   "veh-a",
			CustomerID:  "cust-2",
			FromPincode: "110001",
			ToPincode:   "110002",
			StartTime:   touching,
		})
		require.NoError(t, err)
		assert.True(t, b2.StartTime.Equal(b.EndTime))
	})
}

func TestCreateBooking_Validation(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()

	seedVehicle(t, db, "veh-a", 1000, model.VehicleActive)
	seedVehicle(t, db, "veh-m", 1000, model.VehicleMaintenance)

	valid := CreateInput{
		VehicleID:   "veh-a",
		CustomerID:  "cust-1",
		FromPincode: "110001",
		ToPincode:   "110002",
		StartTime:   futureStart(24 * time.Hour),
	}

	testCases := []struct {
		name   string
		mutate func(in CreateInput) CreateInput
		kind   apperr.Kind
	}{
		{"Missing vehicle id", func(in CreateInput) CreateInput { in.VehicleID = ""; return in }, apperr.MissingFields},
		{"Missing customer id", func(in CreateInput) CreateInput { in.CustomerID = " "; return in }, apperr.MissingFields},
		{"Unknown vehicle", func(in CreateInput) CreateInput { in.VehicleID = "ghost"; return in }, apperr.NotFound},
		{"Vehicle in maintenance", func(in CreateInput) CreateInput { in.VehicleID = "veh-m"; return in }, apperr.VehicleNotActive},
		{"Bad pincode", func(in CreateInput) CreateInput { in.FromPincode = "12"; return in }, apperr.InvalidPincode},
		{"Unparseable time", func(in CreateInput) CreateInput { in.StartTime = "soon"; return in }, apperr.InvalidTimeFormat},
		{"Past time", func(in CreateInput) CreateInput { in.StartTime = "2020-01-01T00:00:00Z"; return in }, apperr.PastStartTime},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Create(ctx, tc.mutate(valid))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tc.kind), "expected kind %v, got %v", tc.kind, apperr.KindOf(err))
		})
	}

	var count int64
	require.NoError(t, db.Model(&model.Booking{}).Count(&count).Error)
	assert.Zero(t, count, "no partial state on failure")
}

// Two concurrent attempts on the same window must not both succeed: the
// per-vehicle lock serializes the re-check and the insert.
func TestCreateBooking_ConcurrentSameWindow(t *testing.T) {
	e, db, _ := newTestEngine(t)
	ctx := context.Background()

	seedVehicle(t, db, "veh-a", 1000, model.VehicleActive)
	start := futureStart(24 * time.Hour)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Create(ctx, CreateInput{
				VehicleID:   "veh-a",
				CustomerID:  fmt.Sprintf("cust-%d", i),
				FromPincode: "110001",
				ToPincode:   "110002",
				StartTime:   start,
			})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.Is(err, apperr.SlotUnavailable):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	var count int64
	require.NoError(t, db.Model(&model.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
