// Package validation collects field-level errors for both the form layer
// and the JSON API, so date/price/rating rules live in exactly one place.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted date format for book publication dates.
const DateLayout = "2006-01-02"

var emailRX = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Violations maps field names to the first error recorded for them.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records the message for the field unless one is already present,
// so the first failure is the one reported.
func (v Violations) Add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

// Check adds msg for field when ok is false.
func (v Violations) Check(ok bool, field, msg string) {
	if !ok {
		v.Add(field, msg)
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func Email(field, value string, v Violations) {
	if !emailRX.MatchString(value) {
		v.Add(field, "invalid_email")
	}
}

func MinLength(field, value string, minLen int, v Violations) {
	if len(value) < minLen {
		v.Add(field, "too_short")
	}
}

// Float parses a decimal field. A violation is recorded on parse failure
// and 0 is returned so callers can continue collecting errors.
func Float(field, value string, v Violations) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		v.Add(field, "invalid_number")
		return 0
	}
	return f
}

func NonNegative(field string, val float64, v Violations) {
	if val < 0 {
		v.Add(field, "must_not_be_negative")
	}
}

func Range(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

// Date parses value against DateLayout, recording a violation when it is
// not a calendar date.
func Date(field, value string, v Violations) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		v.Add(field, "invalid_date")
		return time.Time{}
	}
	return t
}
