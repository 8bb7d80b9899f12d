// Package metrics records run and delivery statistics.
package metrics

import "time"

// Sink receives notifier events. Implementations must not block.
type Sink interface {
	RunStarted(mode string)
	RunCompleted(mode, status string, duration time.Duration)
	RunSkipped(reason string)
	DeliveryCompleted(provider, outcome string, attempts int, duration time.Duration)
	RecipientSkipped(reason string)
}

// Delivery outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
