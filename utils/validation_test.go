package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"international with plus", "+55 (11) 98765-4321", "5511987654321"},
		{"international with 00", "0044 20 7946 0958", "442079460958"},
		{"national gets country code", "(11) 98765-4321", "5511987654321"},
		{"national trunk zero dropped", "011 98765-4321", "5511987654321"},
		{"already has country code", "5511987654321", "5511987654321"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.phone, "55")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneRejectsGarbage(t *testing.T) {
	for _, phone := range []string{"", "   ", "abc", "+0123", "+1234567890123456"} {
		_, err := NormalizePhone(phone, "55")
		assert.ErrorIs(t, err, ErrInvalidPhone, phone)
	}
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+1 (415) 555-0100"))
	assert.False(t, ValidatePhone("not a phone"))
}
