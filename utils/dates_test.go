package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallClockInKeepsClockFields(t *testing.T) {
	saoPaulo := LoadLocation("America/Sao_Paulo")
	naive := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	local := WallClockIn(naive, saoPaulo)

	assert.Equal(t, 10, local.Hour())
	assert.Equal(t, saoPaulo, local.Location())
	assert.True(t, local.Equal(time.Date(2025, 1, 2, 13, 0, 0, 0, time.UTC)))
	assert.True(t, NaiveUTC(local).Equal(naive))
}

func TestLoadLocationFallsBack(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("", "Not/AZone"))
	assert.Equal(t, "Asia/Tokyo", LoadLocation("Bad/Zone", "Asia/Tokyo").String())
}
