// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// ErrInvalidNumber is returned by Validate when a number cannot be parsed or
// is not a valid number for its region. Channel senders treat this as a
// permanent failure: the lead's phone will never become dialable by retrying.
var ErrInvalidNumber = errors.New("invalid phone number")

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Validate parses the input strictly and returns its E.164 form, or
// ErrInvalidNumber when the input is empty, unparseable, or invalid.
func Validate(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrInvalidNumber
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return "", ErrInvalidNumber
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", ErrInvalidNumber
	}

	return phonenumbers.Format(number, phonenumbers.E164), nil
}
