package apperrors

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestMarkersSurviveWrapping(t *testing.T) {
	err := errors.Wrap(Transient(errors.New("503")), "send")
	assert.True(t, IsRetryable(err))
	assert.False(t, errors.Is(err, ErrTerminalDelivery))

	err = errors.Wrap(Terminal(errors.New("401")), "send")
	assert.False(t, IsRetryable(err))
	assert.True(t, errors.Is(err, ErrTerminalDelivery))
}

func TestConfigurationCarriesHint(t *testing.T) {
	err := Configuration("gateway token missing", "run `gateway token`")
	assert.True(t, IsConfiguration(err))
	assert.Contains(t, errors.GetAllHints(err), "run `gateway token`")
}

func TestNotFound(t *testing.T) {
	err := NotFound(errors.New("record not found"), "routine")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "routine not found")
}
