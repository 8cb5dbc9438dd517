// Package event provides a small synchronous publish/subscribe bus used to
// fan debug-session notifications out to interested handlers.
package event

import (
	"sync"

	"github.com/google/uuid"
)

// Topic identifies an event stream on the bus.
type Topic string

// Handler processes a published event payload.
type Handler func(payload any)

// Bus delivers published events to subscribed handlers.
// Delivery is synchronous and in subscription order; handlers run in the
// publisher's goroutine. Bus is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]*Subscription
	byID map[string]*Subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Topic][]*Subscription),
		byID: make(map[string]*Subscription),
	}
}

// Subscribe registers a handler for a topic and returns the subscription.
// A nil handler returns ErrNilHandler; an empty topic returns ErrInvalidTopic.
func (b *Bus) Subscribe(t Topic, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if t == "" {
		return nil, ErrInvalidTopic
	}

	sub := &Subscription{
		id:      uuid.NewString(),
		topic:   t,
		handler: h,
		bus:     b,
	}

	b.mu.Lock()
	b.subs[t] = append(b.subs[t], sub)
	b.byID[sub.id] = sub
	b.mu.Unlock()

	return sub, nil
}

// Unsubscribe removes a subscription from the bus.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}

	sub.markCancelled()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.byID[sub.id]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(b.byID, sub.id)

	subs := b.subs[sub.topic]
	for i, s := range subs {
		if s.id == sub.id {
			b.subs[sub.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.topic]) == 0 {
		delete(b.subs, sub.topic)
	}

	return nil
}

// Publish delivers the payload to every active subscription for the topic.
// Handlers run synchronously in subscription order.
func (b *Bus) Publish(t Topic, payload any) {
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.subs[t]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.IsActive() {
			sub.handler(payload)
		}
	}
}

// SubscriberCount returns the number of active subscriptions for a topic.
func (b *Bus) SubscriberCount(t Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, sub := range b.subs[t] {
		if sub.IsActive() {
			n++
		}
	}
	return n
}
