// Package tracking runs the simulated live ride feed.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"roadchal/internal/observability"
	"roadchal/internal/whatsapp"
)

// Event names sent on the feed.
const (
	EventLocationUpdate = "location_update"
	EventArrivalPing    = "arrival_ping"
)

// Mock values reported by the simulated feed.
const (
	mockLat             = 12.9716
	mockLng             = 77.5946
	mockArrivalLocation = "Indiranagar Metro Station"
)

const (
	subscriberBuffer = 16
	sendTimeout      = 10 * time.Second
)

// Event is one frame of the feed.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// LocationUpdate is the payload of a location_update event.
type LocationUpdate struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	UserPhone string  `json:"userPhone"`
}

// ArrivalPing is the payload of an arrival_ping event.
type ArrivalPing struct {
	LocationName string `json:"locationName"`
	UserPhone    string `json:"userPhone"`
	Type         string `json:"type"`
}

// Subscription receives the events of one topic.
// C is closed when the subscription ends.
type Subscription struct {
	C     <-chan Event
	topic string
	ch    chan Event
}

type schedule struct {
	cancel context.CancelFunc
}

// Hub fans tracking events out to subscribers, keyed by topic. A topic is a
// phone number for the simulated feed, or BookingTopic / DriverTopic for dispatch.
type Hub struct {
	messenger     whatsapp.Messenger
	locationDelay time.Duration
	arrivalDelay  time.Duration
	logger        *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	subscribers map[string]map[*Subscription]struct{}
	schedules   map[string]*schedule
	wg          sync.WaitGroup
}

// NewHub creates a new Hub. messenger may be nil.
func NewHub(messenger whatsapp.Messenger, locationDelay, arrivalDelay time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		messenger:     messenger,
		locationDelay: locationDelay,
		arrivalDelay:  arrivalDelay,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		subscribers:   make(map[string]map[*Subscription]struct{}),
		schedules:     make(map[string]*schedule),
	}
}

// Run blocks until ctx is done, then stops every schedule and closes all subscriptions.
func (h *Hub) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-h.ctx.Done():
	}
	h.Close()
	return nil
}

// Close stops the hub. It is safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	h.cancel()
	h.mu.Unlock()
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, subs := range h.subscribers {
		for sub := range subs {
			close(sub.ch)
			observability.TrackingSubscribers.Dec()
		}
		delete(h.subscribers, topic)
	}
	h.schedules = make(map[string]*schedule)
}

// Subscribe registers a listener for a topic.
func (h *Hub) Subscribe(topic string) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, topic: topic, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		close(ch)
		return sub
	}
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[*Subscription]struct{})
	}
	h.subscribers[topic][sub] = struct{}{}
	observability.TrackingSubscribers.Inc()
	return sub
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sub.topic]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.topic)
	}
	close(sub.ch)
	observability.TrackingSubscribers.Dec()
}

// Publish sends an event to every subscriber of a topic.
// Subscribers that are not keeping up miss the event.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers[topic] {
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn("tracking subscriber is slow, dropping event",
				zap.String("topic", topic), zap.String("event", event.Event))
		}
	}
}

// StartTracking schedules the simulated ride for a phone number. A previous
// schedule for the same number is cancelled.
func (h *Hub) StartTracking(phone string) {
	ctx, cancel := context.WithCancel(h.ctx)
	s := &schedule{cancel: cancel}

	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := h.schedules[phone]; ok {
		prev.cancel()
	}
	h.schedules[phone] = s
	h.wg.Add(2)
	h.mu.Unlock()

	h.logger.Info("tracking started", zap.String("phone", phone))

	go h.after(ctx, h.locationDelay, func() {
		h.Publish(phone, Event{
			Event: EventLocationUpdate,
			Data:  LocationUpdate{Lat: mockLat, Lng: mockLng, UserPhone: phone},
		})
	})
	go h.after(ctx, h.arrivalDelay, func() {
		h.arrive(ctx, phone)
		h.finish(phone, s)
	})
}

func (h *Hub) after(ctx context.Context, delay time.Duration, fn func()) {
	defer h.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		fn()
	}
}

func (h *Hub) arrive(ctx context.Context, phone string) {
	h.Publish(phone, Event{
		Event: EventArrivalPing,
		Data:  ArrivalPing{LocationName: mockArrivalLocation, UserPhone: phone, Type: "here"},
	})

	if h.messenger == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := h.messenger.SendText(sendCtx, phone, fmt.Sprintf("You have reached %s!", mockArrivalLocation)); err != nil {
		h.logger.Warn("failed to send arrival message", zap.String("phone", phone), zap.Error(err))
	}
}

// finish drops the schedule if it was not replaced in the meantime.
func (h *Hub) finish(phone string, s *schedule) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.schedules[phone] == s {
		delete(h.schedules, phone)
	}
	s.cancel()
}
