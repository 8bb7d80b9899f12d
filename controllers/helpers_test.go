package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salonpro-notifier/apperrors"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseWallClock(t *testing.T) {
	want := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	got, err := parseWallClock("2025-01-02T10:00:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	// the offset is dropped, the wall clock is kept
	got, err = parseWallClock("2025-01-02T10:00:00-03:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got), got)

	_, err = parseWallClock("02/01/2025 10:00")
	assert.Error(t, err)
}

func TestRespondErrorStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", apperrors.NotFound(gorm.ErrRecordNotFound, "routine"), http.StatusNotFound},
		{"busy", errors.Wrap(apperrors.ErrRunInProgress, "routine x"), http.StatusConflict},
		{"configuration", apperrors.Configuration("gateway token is not configured", "set GATEWAY_TOKEN"), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err, "fallback")
			assert.Equal(t, tc.code, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tc.code == http.StatusInternalServerError {
				assert.Equal(t, "fallback", body["error"])
			}
			if tc.code == http.StatusServiceUnavailable {
				assert.Contains(t, body["error"], "GATEWAY_TOKEN")
			}
		})
	}
}

func TestSalonFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := salonFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Set("salonId", "00000000-0000-0000-0000-000000000001")
	id, ok := salonFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", id.String())
}
