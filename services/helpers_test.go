package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"salonpro-notifier/gateway"
	"salonpro-notifier/models"
	"salonpro-notifier/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	Phone   string
	Message string
}

// fakeSender records messages and answers per phone; unknown phones succeed.
type fakeSender struct {
	mu      sync.Mutex
	authErr error
	results map[string]gateway.Result
	panicOn string
	// afterSend runs once a message has been accepted.
	afterSend func()
	sent      []sentMessage
}

func newFakeSender() *fakeSender {
	return &fakeSender{results: map[string]gateway.Result{}}
}

func (f *fakeSender) Provider() string { return "fake" }

func (f *fakeSender) EnsureAuthenticated() error { return f.authErr }

func (f *fakeSender) SendMessage(ctx context.Context, phone, message string) gateway.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if phone == f.panicOn && phone != "" {
		panic("sender exploded")
	}
	f.sent = append(f.sent, sentMessage{Phone: phone, Message: message})
	if f.afterSend != nil {
		f.afterSend()
	}
	if r, ok := f.results[phone]; ok {
		return r
	}
	return gateway.Result{Success: true, HTTPStatus: 200, AttemptCount: 1, Body: map[string]interface{}{"status": "success"}}
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

type harness struct {
	*testutil.Fixture
	clock  *testutil.FixedClock
	sender *fakeSender
	svc    *ReminderService
}

func newHarness(t *testing.T, now time.Time, opts ...ServiceOption) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	h := &harness{
		Fixture: testutil.NewFixture(t, db),
		clock:   testutil.NewFixedClock(now),
		sender:  newFakeSender(),
	}
	cfg := ReminderConfig{
		Window:          5 * time.Minute,
		DuplicateWindow: 10 * time.Minute,
		DefaultTimezone: "UTC",
		DefaultLanguage: "pt_BR",
	}
	opts = append([]ServiceOption{WithClock(h.clock.Now)}, opts...)
	h.svc = NewReminderService(db, cfg, func() MessageSender { return h.sender }, zerolog.Nop(), opts...)
	return h
}

func (h *harness) sendRecords(t *testing.T) []models.SendRecord {
	t.Helper()
	var recs []models.SendRecord
	require.NoError(t, h.DB.Order("created_at ASC, to_phone ASC").Find(&recs).Error)
	return recs
}

func (h *harness) executionLogs(t *testing.T) []models.ExecutionLog {
	t.Helper()
	var logs []models.ExecutionLog
	require.NoError(t, h.DB.Order("execution_datetime ASC").Find(&logs).Error)
	return logs
}
