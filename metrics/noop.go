package metrics

import "time"

// NoopSink discards everything. Used when no registry is wired.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (NoopSink) RunStarted(mode string)                                      {}
func (NoopSink) RunCompleted(mode, status string, d time.Duration)           {}
func (NoopSink) RunSkipped(reason string)                                    {}
func (NoopSink) DeliveryCompleted(p, outcome string, a int, d time.Duration) {}
func (NoopSink) RecipientSkipped(reason string)                              {}
