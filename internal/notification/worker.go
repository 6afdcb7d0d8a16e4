package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers delivering waitlist-offer
// notifications.
type WorkerPool struct {
	size    int
	jobs    chan string
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool over waitlist entry ids.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size),
		store:   s,
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

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case entryID := <-wp.jobs:
			log.Printf("Notification worker %d processing waitlist entry %s", id, entryID)
			wp.notifyOffer(ctx, entryID)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a waitlist entry for offer notification.
func (wp *WorkerPool) Dispatch(entryID string) {
	wp.jobs <- entryID
}

// notifyOffer loads the entry and its push subscription and delivers the
// offer message. Entries without a push endpoint are skipped silently.
func (wp *WorkerPool) notifyOffer(ctx context.Context, entryID string) {
	var entry model.WaitlistEntry
	if err := wp.store.DB().WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		log.Printf("Error fetching waitlist entry %s: %v", entryID, err)
		return
	}
	if entry.PushEndpoint == nil || entry.Status != model.WaitlistOffered {
		return
	}

	sub, err := wp.store.GetSubscription(ctx, *entry.PushEndpoint)
	if err != nil {
		log.Printf("Error fetching subscription for waitlist entry %s: %v", entryID, err)
		return
	}

	resourceLabel := "a suite"
	if entry.OfferResourceID != nil {
		if res, err := wp.store.GetResource(ctx, entry.TenantID, *entry.OfferResourceID); err == nil {
			resourceLabel = res.Name
		} else {
			log.Printf("Error fetching resource %s: %v", *entry.OfferResourceID, err)
		}
	}

	deadline := ""
	if entry.OfferExpiresAt != nil {
		deadline = fmt.Sprintf(" Confirm before %s.", entry.OfferExpiresAt.Format(time.RFC1123))
	}
	message := fmt.Sprintf("A spot opened up: %s from %s to %s.%s",
		resourceLabel,
		entry.StartAt.Format("Jan 2"),
		entry.EndAt.Format("Jan 2"),
		deadline)

	wp.send(ctx, sub, []byte(message))
}

// send delivers a single web push notification and drops subscriptions the
// push service reports as gone.
func (wp *WorkerPool) send(ctx context.Context, sub *model.PushSubscription, payload []byte) {
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

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
