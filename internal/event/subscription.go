package event

import "sync/atomic"

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription represents an active registration on the bus.
// Cancel is idempotent and removes the subscription from its bus.
type Subscription struct {
	id      string
	topic   Topic
	handler Handler
	bus     *Bus
	state   atomic.Int32
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed topic.
func (s *Subscription) Topic() Topic { return s.topic }

// State returns the current subscription state.
func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// IsActive returns true if the subscription can receive events.
func (s *Subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

// Cancel permanently cancels the subscription and removes it from the bus.
func (s *Subscription) Cancel() {
	if s.bus != nil {
		_ = s.bus.Unsubscribe(s)
	}
}

// markCancelled flips the state without touching the bus registry.
func (s *Subscription) markCancelled() {
	s.state.Store(int32(SubscriptionStateCancelled))
}
