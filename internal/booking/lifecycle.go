package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"fleetlink-backend/internal/apperr"
	"fleetlink-backend/internal/model"
	"fleetlink-backend/internal/store"
)

// Get fetches a booking with its vehicle.
func (e *Engine) Get(ctx context.Context, id string) (*model.Booking, error) {
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "booking %s not found", id)
		}
		return nil, apperr.Wrap("Error fetching booking", err)
	}
	return b, nil
}

// UpdateStatus moves a booking to the given status. Transitioning to
// in-progress stamps the actual start time, completing stamps the actual
// end time; neither is overwritten once set. Non-empty notes are merged in.
func (e *Engine) UpdateStatus(ctx context.Context, id string, status model.BookingStatus, notes string) (*model.Booking, error) {
	if !model.ValidBookingStatus(status) {
		return nil, apperr.Newf(apperr.Validation, "unknown booking status %q", status)
	}

	b, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b.Status = status
	switch status {
	case model.BookingInProgress:
		if b.ActualStartTime == nil {
			t := now
			b.ActualStartTime = &t
		}
	case model.BookingCompleted:
		if b.ActualEndTime == nil {
			t := now
			b.ActualEndTime = &t
		}
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		b.Notes = notes
	}

	if err := e.store.SaveBooking(ctx, b); err != nil {
		return nil, apperr.Wrap("Error updating booking status", err)
	}
	e.notify(b.ID)
	return b, nil
}

// Cancel transitions a booking to cancelled. Cancellation is refused once
// the booking is completed or already cancelled, or when the start time is
// closer than the cancellation cutoff.
func (e *Engine) Cancel(ctx context.Context, id, reason string) (*model.Booking, error) {
	b, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch b.Status {
	case model.BookingCompleted:
		return nil, apperr.Newf(apperr.AlreadyCompleted, "booking %s is already completed", id)
	case model.BookingCancelled:
		return nil, apperr.Newf(apperr.AlreadyCancelled, "booking %s is already cancelled", id)
	}

	if time.Until(b.StartTime) < e.cancellationCutoff {
		return nil, apperr.Newf(apperr.TooCloseToStart,
			"booking %s starts within %v and can no longer be cancelled", id, e.cancellationCutoff)
	}

	b.Status = model.BookingCancelled
	if reason = strings.TrimSpace(reason); reason != "" {
		b.Notes = fmt.Sprintf("Cancelled: %s", reason)
	} else {
		b.Notes = "Cancelled by user"
	}

	if err := e.store.SaveBooking(ctx, b); err != nil {
		return nil, apperr.Wrap("Error cancelling booking", err)
	}
	e.notify(b.ID)
	return b, nil
}

// Delete hard-deletes a booking record. Only cancelled bookings may be
// deleted.
func (e *Engine) Delete(ctx context.Context, id string) error {
	b, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != model.BookingCancelled {
		return apperr.Newf(apperr.NotCancelled, "booking %s is %s; only cancelled bookings can be deleted", id, b.Status)
	}
	if err := e.store.DeleteBooking(ctx, id); err != nil {
		return apperr.Wrap("Error deleting booking", err)
	}
	return nil
}

// CustomerBookings is one page of a customer's booking history.
type CustomerBookings struct {
	Bookings []model.Booking `json:"bookings"`
	Total    int64           `json:"total"`
	HasMore  bool            `json:"hasMore"`
}

// ListCustomerBookings returns a page of the customer's bookings, newest
// first. The limit defaults to 10.
func (e *Engine) ListCustomerBookings(ctx context.Context, customerID string, f store.CustomerBookingFilter) (*CustomerBookings, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, apperr.New(apperr.MissingFields, "customerId is required")
	}
	if f.Status != "" && !model.ValidBookingStatus(f.Status) {
		return nil, apperr.Newf(apperr.Validation, "unknown booking status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	bookings, total, err := e.store.ListCustomerBookings(ctx, customerID, f)
	if err != nil {
		return nil, apperr.Wrap("Error listing customer bookings", err)
	}
	return &CustomerBookings{
		Bookings: bookings,
		Total:    total,
		HasMore:  int64(f.Offset+f.Limit) < total,
	}, nil
}

// Analytics aggregates bookings across the fleet.
type Analytics struct {
	TotalBookings    int64                         `json:"totalBookings"`
	CountsByStatus   map[model.BookingStatus]int64 `json:"countsByStatus"`
	TotalHoursBooked float64                       `json:"totalHoursBooked"`
	AverageRideHours float64                       `json:"averageRideHours"`
}

// Analytics returns per-status counts plus summed and average estimated
// ride hours, optionally bounded by booking creation time.
func (e *Engine) Analytics(ctx context.Context, r *store.TimeRange) (*Analytics, error) {
	rows, err := e.store.AggregateBookings(ctx, r)
	if err != nil {
		return nil, apperr.Wrap("Error aggregating bookings", err)
	}

	a := &Analytics{CountsByStatus: make(map[model.BookingStatus]int64)}
	for _, row := range rows {
		a.CountsByStatus[row.Status] = row.Count
		a.TotalBookings += row.Count
		a.TotalHoursBooked += row.TotalHours
	}
	if a.TotalBookings > 0 {
		a.AverageRideHours = a.TotalHoursBooked / float64(a.TotalBookings)
	}
	return a, nil
}
