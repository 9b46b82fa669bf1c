// Package events fans webhook events out to live subscribers of a project.
package events

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/models"
)

// DefaultBuffer is the per-subscriber queue length. Events published while a
// subscriber's queue is full are dropped for that subscriber.
const DefaultBuffer = 64

// Hub routes events to the subscribers of the event's project.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[*Subscription]struct{}
	buffer int
	closed bool
	logger *zap.Logger
}

// Subscription receives the events of one project until closed.
type Subscription struct {
	ProjectID uuid.UUID

	hub  *Hub
	ch   chan models.ProjectEvent
	once sync.Once
}

// NewHub creates a hub. buffer <= 0 uses DefaultBuffer.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.Named("events"),
	}
}

// Subscribe registers a subscriber for projectID. The caller must Close it.
// Subscribing to a closed hub returns an already-closed subscription.
func (h *Hub) Subscribe(projectID uuid.UUID) *Subscription {
	sub := &Subscription{
		ProjectID: projectID,
		hub:       h,
		ch:        make(chan models.ProjectEvent, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[projectID] = room
	}
	room[sub] = struct{}{}

	h.logger.Debug("Subscriber joined",
		zap.String("project_id", projectID.String()),
		zap.Int("subscribers", len(room)))
	return sub
}

// Publish delivers event to every subscriber of its project without blocking.
func (h *Hub) Publish(event models.ProjectEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[event.ProjectID] {
		select {
		case sub.ch <- event:
		default:
			h.logger.Warn("Dropping event for slow subscriber",
				zap.String("project_id", event.ProjectID.String()),
				zap.String("event_type", string(event.EventType)))
		}
	}
}

// SubscriberCount returns the number of live subscribers of projectID.
func (h *Hub) SubscriberCount(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for projectID, room := range h.rooms {
		for sub := range room {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(h.rooms, projectID)
	}
}

// Events returns the channel events arrive on. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) Events() <-chan models.ProjectEvent {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[s.ProjectID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, s.ProjectID)
		}
	}
	s.once.Do(func() { close(s.ch) })
}
