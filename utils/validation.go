// utils/validation.go
package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	// + prefix followed by 2-15 digits, no leading zero after the country code
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

var ErrInvalidPhone = errors.New("invalid phone number")

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phoneCleaner.Replace(phone))
}

// NormalizePhone returns the digits-only international form the gateway
// expects (country code included, no plus sign). Numbers written without a
// country code get defaultCountryCode prepended; a national trunk zero is
// dropped first.
func NormalizePhone(phone, defaultCountryCode string) (string, error) {
	cleaned := phoneCleaner.Replace(strings.TrimSpace(phone))
	if cleaned == "" {
		return "", ErrInvalidPhone
	}

	switch {
	case strings.HasPrefix(cleaned, "+"):
		cleaned = cleaned[1:]
	case strings.HasPrefix(cleaned, "00"):
		cleaned = cleaned[2:]
	default:
		cc := strings.TrimPrefix(defaultCountryCode, "+")
		national := strings.TrimLeft(cleaned, "0")
		if cc != "" && !(strings.HasPrefix(national, cc) && len(national) > 11) {
			cleaned = cc + national
		} else {
			cleaned = national
		}
	}

	if !phonePattern.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}
