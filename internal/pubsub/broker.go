package pubsub

import (
	"log/slog"
	"sync"

	"github.com/dukerupert/todochat/internal/model"
)

const subscriptionBuffer = 16

// Subscription receives messages posted to one room after it was created.
type Subscription struct {
	RoomID int64

	broker *Broker
	ch     chan *model.Message
	once   sync.Once
}

// C is closed when the subscription is closed.
func (s *Subscription) C() <-chan *model.Message {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.unregister(s)
	})
}

// Broker fans new chat messages out to the subscriptions of their room.
// Delivery is fire-and-forget: a subscriber whose buffer is full misses the
// message, and nothing is replayed to late subscribers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers interest in roomID.
func (b *Broker) Subscribe(roomID int64) *Subscription {
	s := &Subscription{
		RoomID: roomID,
		broker: b,
		ch:     make(chan *model.Message, subscriptionBuffer),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

func (b *Broker) unregister(s *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
	b.mu.Unlock()
}

// Publish delivers msg to every subscription on msg.RoomID without blocking.
func (b *Broker) Publish(msg *model.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs {
		if s.RoomID != msg.RoomID {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			b.logger.Warn("subscriber buffer full, message dropped", "room_id", msg.RoomID, "message_id", msg.ID)
		}
	}
}

// SubscriberCount returns the number of open subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
