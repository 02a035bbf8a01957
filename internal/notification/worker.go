package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"fleetlink-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers pushing booking status updates to
// the booking's customer.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case bookingID := <-wp.jobs:
			wp.notifyBookingChange(ctx, bookingID)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a booking for notification. The send is non-blocking;
// when the queue is full the notification is dropped rather than stalling
// the booking path.
func (wp *WorkerPool) Dispatch(bookingID string) {
	select {
	case wp.jobs <- bookingID:
	default:
		log.Printf("Notification queue full, dropping update for booking %s", bookingID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// notifyBookingChange fetches the booking and pushes a status message to
// each of the customer's subscriptions.
func (wp *WorkerPool) notifyBookingChange(ctx context.Context, bookingID string) {
	var b model.Booking
	if err := wp.db.WithContext(ctx).Preload("Vehicle").First(&b, "id = ?", bookingID).Error; err != nil {
		log.Printf("Error fetching booking %s for notification: %v", bookingID, err)
		return
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).
		Where("customer_id = ?", b.CustomerID).
		Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for customer %s: %v", b.CustomerID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	message := statusMessage(&b)
	log.Printf("Sending %d notification(s) for booking %s", len(subscriptions), bookingID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func statusMessage(b *model.Booking) string {
	vehicleLabel := b.VehicleID
	if b.Vehicle.Name != "" {
		vehicleLabel = b.Vehicle.Name
	}

	switch b.Status {
	case model.BookingConfirmed:
		return fmt.Sprintf("Your booking on %s (%s) is confirmed for %s.",
			vehicleLabel, b.FromPincode+" to "+b.ToPincode, b.StartTime.Format("2006-01-02 15:04"))
	case model.BookingInProgress:
		return fmt.Sprintf("Your ride on %s has started.", vehicleLabel)
	case model.BookingCompleted:
		return fmt.Sprintf("Your ride on %s is complete.", vehicleLabel)
	case model.BookingCancelled:
		return fmt.Sprintf("Your booking on %s has been cancelled.", vehicleLabel)
	default:
		return fmt.Sprintf("Your booking on %s is now %s.", vehicleLabel, b.Status)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
