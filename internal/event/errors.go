package event

import "errors"

var (
	// ErrNilHandler is returned when subscribing with a nil handler.
	ErrNilHandler = errors.New("event: handler cannot be nil")

	// ErrInvalidTopic is returned when subscribing to an empty topic.
	ErrInvalidTopic = errors.New("event: topic cannot be empty")

	// ErrInvalidSubscription is returned when unsubscribing a nil subscription.
	ErrInvalidSubscription = errors.New("event: invalid subscription")

	// ErrSubscriptionNotFound is returned when the subscription is not registered.
	ErrSubscriptionNotFound = errors.New("event: subscription not found")
)
