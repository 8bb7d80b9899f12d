package services

import (
	"context"
	"testing"
	"time"

	"salonpro-notifier/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	hashes     map[string]bool
	recent     bool
	recentArgs []interface{}
}

func (f *fakeHistory) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	return f.hashes[hash], nil
}

func (f *fakeHistory) IsDuplicateSend(ctx context.Context, appointmentID, templateID uuid.UUID, sendType, statusKey string, since time.Time) (bool, error) {
	f.recentArgs = []interface{}{appointmentID, templateID, sendType, statusKey, since}
	return f.recent, nil
}

func TestBodyHashIsStable(t *testing.T) {
	appt, tpl := uuid.New(), uuid.New()
	a := BodyHash(appt, tpl, models.SendTypeManual, "Olá Ana")
	assert.Len(t, a, 64)
	assert.Equal(t, a, BodyHash(appt, tpl, models.SendTypeManual, "Olá Ana"))
	assert.NotEqual(t, a, BodyHash(appt, tpl, models.SendTypeManual, "Olá Bia"))
	assert.NotEqual(t, a, BodyHash(appt, tpl, models.SendTypeOnCreate, "Olá Ana"))
}

func TestIdempotencyGuard(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	base := DuplicateCheck{
		AppointmentID: uuid.New(),
		StatusKey:     models.AppointmentConfirmed,
		TemplateID:    uuid.New(),
		SendType:      models.SendTypeManual,
		BodyHash:      "h1",
		Window:        10 * time.Minute,
	}

	cases := []struct {
		name    string
		mutate  func(*DuplicateCheck)
		history fakeHistory
		want    bool
	}{
		{name: "fresh send", want: false},
		{name: "same body already sent", history: fakeHistory{hashes: map[string]bool{"h1": true}}, want: true},
		{name: "recent send for same key", history: fakeHistory{recent: true}, want: true},
		{
			name:    "routine sends are never checked",
			mutate:  func(c *DuplicateCheck) { c.SendType = models.SendTypeRoutine },
			history: fakeHistory{hashes: map[string]bool{"h1": true}, recent: true},
			want:    false,
		},
		{
			name:    "time change always passes",
			mutate:  func(c *DuplicateCheck) { c.TimeChanged = true },
			history: fakeHistory{hashes: map[string]bool{"h1": true}, recent: true},
			want:    false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			if tc.mutate != nil {
				tc.mutate(&c)
			}
			h := tc.history
			guard := NewIdempotencyGuard(&h, func() time.Time { return now })
			got, err := guard.IsDuplicate(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIdempotencyGuardLooksBackOneWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &fakeHistory{}
	guard := NewIdempotencyGuard(h, func() time.Time { return now })
	c := DuplicateCheck{AppointmentID: uuid.New(), TemplateID: uuid.New(), SendType: models.SendTypeStatusChange, StatusKey: "Canceled", Window: 10 * time.Minute}

	_, err := guard.IsDuplicate(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, h.recentArgs, 5)
	assert.Equal(t, now.Add(-10*time.Minute), h.recentArgs[4])
}
