package services

import (
	"context"
	"testing"

	"salonpro-notifier/apperrors"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLocker(t *testing.T) {
	l := NewLocalRunLocker()
	ctx := context.Background()

	release, err := l.TryLock(ctx, "r1")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "r1")
	assert.True(t, errors.Is(err, apperrors.ErrRunInProgress))

	other, err := l.TryLock(ctx, "r2")
	require.NoError(t, err)
	other()

	release()
	release() // second release is a no-op

	again, err := l.TryLock(ctx, "r1")
	require.NoError(t, err)
	again()
}
