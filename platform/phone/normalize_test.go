package phone

import (
	"errors"
	"testing"
)

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"us number with punctuation", "(415) 555-2671", "+14155552671"},
		{"already e164", "+14155552671", "+14155552671"},
		{"garbage passes through", "not-a-number", "not-a-number"},
		{"empty stays empty", "  ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input); got != tc.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestValidateRejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "12", "not-a-number", "+1999999"} {
		if _, err := Validate(input); !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("Validate(%q) err = %v, want ErrInvalidNumber", input, err)
		}
	}

	got, err := Validate("415-555-2671")
	if err != nil {
		t.Fatalf("Validate valid number: %v", err)
	}
	if got != "+14155552671" {
		t.Fatalf("Validate = %q, want +14155552671", got)
	}
}
