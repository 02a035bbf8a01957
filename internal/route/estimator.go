// Package route estimates ride duration, distance and cost between two
// pincodes. The arithmetic is a deliberately coarse placeholder (numeric
// pincode difference mod 24) kept for compatibility with existing clients;
// it must not be replaced with real geocoding.
package route

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"fleetlink-backend/internal/apperr"
)

const (
	// Assumed average speed used to derive distance from duration.
	averageSpeedKmph = 50

	baseFareUnits  = 500
	unitsPerKm     = 10
	minDurationHrs = 0.5
)

// Info bundles the estimates for one route request.
type Info struct {
	FromPincode   string  `json:"fromPincode"`
	ToPincode     string  `json:"toPincode"`
	DurationHours float64 `json:"estimatedRideDurationHours"`
	DistanceKm    int     `json:"distanceKm"`
	Cost          int     `json:"estimatedCost"`
	RouteLabel    string  `json:"routeLabel"`
}

// IsValidPincode reports whether code is exactly 6 ASCII digits.
func IsValidPincode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// EstimateDuration returns the estimated ride duration in hours between two
// pincodes: absolute numeric difference mod 24, floored at 0.5.
func EstimateDuration(from, to string) (float64, error) {
	if !IsValidPincode(from) {
		return 0, apperr.Newf(apperr.InvalidPincode, "invalid from pincode: %q", from)
	}
	if !IsValidPincode(to) {
		return 0, apperr.Newf(apperr.InvalidPincode, "invalid to pincode: %q", to)
	}

	f, _ := strconv.Atoi(from)
	t, _ := strconv.Atoi(to)

	raw := float64((abs(t-f)) % 24)
	return math.Max(raw, minDurationHrs), nil
}

// EstimateEndTime parses start as an RFC3339 timestamp and adds the given
// duration, truncated to millisecond precision.
func EstimateEndTime(start string, durationHours float64) (time.Time, error) {
	startTime, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, apperr.Newf(apperr.InvalidTimeFormat, "invalid start time %q: use RFC3339", start)
	}
	if durationHours <= 0 {
		return time.Time{}, apperr.Newf(apperr.InvalidDuration, "duration must be positive, got %v", durationHours)
	}
	d := time.Duration(durationHours * float64(time.Hour))
	return startTime.Add(d).Truncate(time.Millisecond), nil
}

// EstimateDistance returns the estimated distance in kilometers, derived
// from the duration estimate at the assumed average speed.
func EstimateDistance(from, to string) (int, error) {
	hours, err := EstimateDuration(from, to)
	if err != nil {
		return 0, apperr.Wrap("Error estimating distance", err)
	}
	return int(math.Round(hours * averageSpeedKmph)), nil
}

// EstimateRoute computes the full estimate bundle for a route. The cost is
// base fare plus a per-kilometer charge scaled linearly by vehicle capacity
// in tonnes, with the multiplier floored at 1x.
func EstimateRoute(from, to string, capacityKg int) (Info, error) {
	if capacityKg <= 0 {
		capacityKg = 1000
	}

	hours, err := EstimateDuration(from, to)
	if err != nil {
		return Info{}, apperr.Wrap("Error getting route info", err)
	}
	distanceKm := int(math.Round(hours * averageSpeedKmph))

	multiplier := math.Max(1, float64(capacityKg)/1000)
	cost := int(math.Round(baseFareUnits + float64(distanceKm)*unitsPerKm*multiplier))

	return Info{
		FromPincode:   from,
		ToPincode:     to,
		DurationHours: hours,
		DistanceKm:    distanceKm,
		Cost:          cost,
		RouteLabel:    fmt.Sprintf("%s to %s", from, to),
	}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
