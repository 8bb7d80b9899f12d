package services

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ActiveRunner is what the scheduler triggers on each tick.
type ActiveRunner interface {
	RunAllActive(ctx context.Context) error
}

// ReminderScheduler runs every active routine on a cron schedule. A tick that
// fires while the previous one is still working is dropped.
type ReminderScheduler struct {
	c       *cron.Cron
	runner  ActiveRunner
	log     zerolog.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewReminderScheduler validates spec (standard five fields or a descriptor
// such as "@every 5m") and registers the job. Nothing runs until Start.
func NewReminderScheduler(spec string, runner ActiveRunner, log zerolog.Logger) (*ReminderScheduler, error) {
	log = log.With().Str("component", "scheduler").Logger()
	s := &ReminderScheduler{runner: runner, log: log, timeout: 10 * time.Minute}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{log: log}
	s.c = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.c.AddFunc(spec, s.tick); err != nil {
		s.cancel()
		return nil, errors.WithHint(errors.Wrapf(err, "invalid schedule %q", spec), "set SCAN_SCHEDULE to a cron expression or @every <duration>")
	}
	return s, nil
}

func (s *ReminderScheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	started := time.Now()
	if err := s.runner.RunAllActive(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled reminder run had errors")
		return
	}
	s.log.Debug().Dur("took", time.Since(started)).Msg("scheduled reminder run done")
}

func (s *ReminderScheduler) Start() {
	s.c.Start()
	s.log.Info().Msg("reminder scheduler started")
}

// Stop cancels the running tick and waits for it to return.
func (s *ReminderScheduler) Stop() {
	s.cancel()
	<-s.c.Stop().Done()
	s.log.Info().Msg("reminder scheduler stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
