// Package realtime fans order events out to connected dashboard subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"food-storefront/internal/model"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Group is the broadcast group dashboard subscribers join.
const Group = "orders_updates"

const defaultBufferSize = 32

// Publisher pushes an order event to every dashboard subscriber.
type Publisher interface {
	Publish(ctx context.Context, event model.OrderEvent) error
}

type Subscriber struct {
	messages chan []byte
}

// Messages is closed when the subscriber is removed from the hub.
func (s *Subscriber) Messages() <-chan []byte {
	return s.messages
}

// Hub is an in-process broadcast group. Broadcast never blocks: a subscriber
// whose buffer is full misses the message.
type Hub struct {
	mu         sync.RWMutex
	subs       map[*Subscriber]struct{}
	bufferSize int
	dropped    atomic.Int64
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Hub{
		subs:       make(map[*Subscriber]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{messages: make(chan []byte, h.bufferSize)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.messages)
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped counts messages lost to full subscriber buffers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Broadcast delivers msg to every subscriber with room and returns how many got it.
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs {
		select {
		case sub.messages <- msg:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}

	if delivered < len(h.subs) {
		h.logger.Warn("realtime subscribers too slow, messages dropped",
			slog.Int("subscribers", len(h.subs)),
			slog.Int("delivered", delivered),
		)
	}
	return delivered
}

func (h *Hub) Publish(_ context.Context, event model.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	h.Broadcast(payload)
	return nil
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.messages)
	}
}
