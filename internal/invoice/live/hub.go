package live

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

const DefaultSubscriberBuffer = 16

var (
	ErrHubUnavailable = errors.New("live_hub_unavailable")
	ErrInvalidOwner   = errors.New("live_invalid_owner")
)

// Change signals that an owner's invoice collection changed. Subscribers
// reload the collection rather than applying the change themselves.
type Change struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	InvoiceID string    `json:"invoice_id"`
	Op        string    `json:"op"`
	At        time.Time `json:"at"`
}

func NewChange(ownerID, invoiceID, op string, at time.Time) Change {
	return Change{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		InvoiceID: invoiceID,
		Op:        op,
		At:        at.UTC(),
	}
}

// Hub fans changes out to the subscribers of one owner within this process.
type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	subs   map[uint64]chan Change
	nextID uint64
}

type Subscription struct {
	hub     *Hub
	ownerID string
	id      uint64
	ch      chan Change
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish never blocks; a subscriber whose buffer is full misses the signal
// but still sees the change in the next snapshot it loads.
func (h *Hub) Publish(change Change) {
	if h == nil {
		return
	}
	owner := strings.TrimSpace(change.OwnerID)
	if owner == "" {
		return
	}
	h.mu.RLock()
	stream := h.streams[owner]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	subs := make([]chan Change, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- change:
		default:
		}
	}
}

func (h *Hub) Subscribe(ownerID string) (*Subscription, error) {
	if h == nil {
		return nil, ErrHubUnavailable
	}
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	// The subscriber is added under h.mu so a concurrent unsubscribe cannot
	// drop the stream from the map between lookup and insert.
	h.mu.Lock()
	current := h.streams[owner]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Change)}
		h.streams[owner] = current
	}
	current.mu.Lock()
	id := current.nextID
	current.nextID++
	ch := make(chan Change, h.subscriberBuffer)
	current.subs[id] = ch
	current.mu.Unlock()
	h.mu.Unlock()

	return &Subscription{hub: h, ownerID: owner, id: id, ch: ch}, nil
}

// Subscribers reports the number of open subscriptions for ownerID.
func (h *Hub) Subscribers(ownerID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	stream := h.streams[strings.TrimSpace(ownerID)]
	h.mu.RUnlock()
	if stream == nil {
		return 0
	}
	stream.mu.Lock()
	defer stream.mu.Unlock()
	return len(stream.subs)
}

func (h *Hub) unsubscribe(ownerID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	stream := h.streams[ownerID]
	if stream == nil {
		return
	}
	stream.mu.Lock()
	delete(stream.subs, id)
	empty := len(stream.subs) == 0
	stream.mu.Unlock()
	if empty {
		delete(h.streams, ownerID)
	}
}

func (s *Subscription) Changes() <-chan Change {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.ownerID, s.id)
	})
}
