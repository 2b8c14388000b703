package identity

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// MinPIN and MaxPIN bound the six digit mPIN.
	MinPIN = 100000
	MaxPIN = 999999

	countryPrefix = "+91"
)

var (
	// ErrInvalidPhone is returned when a phone number does not match +91 followed by ten digits.
	ErrInvalidPhone = errors.New("invalid phone number format")
	// ErrInvalidPIN is returned when an mPIN falls outside the six digit range.
	ErrInvalidPIN = errors.New("mpin must be a 6 digit number")

	phonePattern = regexp.MustCompile(`^\+91\d{10}$`)
	separators   = strings.NewReplacer(" ", "", "-", "")
)

// NormalizePhone strips spaces and hyphens after the +91 prefix and checks the
// result against the +91XXXXXXXXXX form used as the storage key.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, countryPrefix) {
		return "", ErrInvalidPhone
	}
	phone := separators.Replace(raw)
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// ValidatePIN rejects mPINs outside [MinPIN, MaxPIN].
func ValidatePIN(pin int) error {
	if pin < MinPIN || pin > MaxPIN {
		return ErrInvalidPIN
	}
	return nil
}
