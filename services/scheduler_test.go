package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
}

func (c *countingRunner) RunAllActive(ctx context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestReminderSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewReminderScheduler("every five minutes", &countingRunner{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestReminderSchedulerRunsOnTick(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}
	runner := &countingRunner{}
	s, err := NewReminderScheduler("@every 1s", runner, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
