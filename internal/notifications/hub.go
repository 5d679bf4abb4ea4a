package notifications

import (
	"sync"

	"github.com/fdg312/fithub/internal/metrics"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const subscriberBuffer = 16

// Hub fans notifications out to the open streams of each user.
// Publish never blocks: a subscriber whose buffer is full is dropped
// and its channel closed, so the stream handler can end the response.
type Hub struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]map[chan NotificationDTO]struct{}
	metrics *metrics.Manager
}

func NewHub(m *metrics.Manager) *Hub {
	return &Hub{
		subs:    make(map[uuid.UUID]map[chan NotificationDTO]struct{}),
		metrics: m,
	}
}

// Subscribe registers a stream for userID. The returned func is
// idempotent and must be called when the stream ends.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan NotificationDTO, func()) {
	ch := make(chan NotificationDTO, subscriberBuffer)

	h.mu.Lock()
	set := h.subs[userID]
	if set == nil {
		set = make(map[chan NotificationDTO]struct{})
		h.subs[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.GaugeStreamSubscribers.Inc()
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.removeLocked(userID, ch)
		})
	}
}

// Publish delivers n to every stream of userID and reports how many got it.
func (h *Hub) Publish(userID uuid.UUID, n NotificationDTO) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for ch := range h.subs[userID] {
		select {
		case ch <- n:
			delivered++
		default:
			log.WithField("user_id", userID).Warn("notifications: subscriber too slow, dropping")
			h.removeLocked(userID, ch)
			if h.metrics != nil {
				h.metrics.CounterStreamDropped.Inc()
			}
		}
	}
	return delivered
}

// Subscribers returns the number of open streams for userID.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) removeLocked(userID uuid.UUID, ch chan NotificationDTO) {
	set := h.subs[userID]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, userID)
	}
	if h.metrics != nil {
		h.metrics.GaugeStreamSubscribers.Dec()
	}
}
