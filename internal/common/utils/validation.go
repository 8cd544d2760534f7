package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirosato/construction-erp/internal/domain/errors"
)

const (
	// DateLayout is the wire format for calendar dates
	DateLayout = "2006-01-02"
	// MonthLayout is the wire format for calendar months
	MonthLayout = "2006-01"
)

var (
	// CodeRegex validates business codes such as account codes and entry numbers
	CodeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-/]{0,63}$`)

	// DateRegex validates ISO 8601 date strings (YYYY-MM-DD)
	DateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// CurrencyRegex validates ISO 4217 style currency codes
	CurrencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateCode validates a business code
func ValidateCode(code, fieldName string) error {
	if !CodeRegex.MatchString(code) {
		return errors.NewValidationError("invalid " + fieldName + ", use letters, digits, '.', '-', '_' or '/'")
	}
	return nil
}

// ParseISODate validates and parses an ISO 8601 date string (YYYY-MM-DD)
func ParseISODate(date, fieldName string) (time.Time, error) {
	if !DateRegex.MatchString(date) {
		return time.Time{}, errors.NewValidationError("invalid " + fieldName + " format, should be YYYY-MM-DD")
	}

	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid " + fieldName + " value")
	}
	return parsed, nil
}

// ParseOptionalISODate is ParseISODate that maps an empty string to the zero time
func ParseOptionalISODate(date, fieldName string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return time.Time{}, nil
	}
	return ParseISODate(date, fieldName)
}

// ValidateCurrency validates a currency code
func ValidateCurrency(currency string) error {
	if !CurrencyRegex.MatchString(currency) {
		return errors.NewValidationError("invalid currency code, should be a 3-letter code (e.g., USD)")
	}
	return nil
}

// ValidateNonNegative rejects negative amounts
func ValidateNonNegative(amount decimal.Decimal, fieldName string) error {
	if amount.IsNegative() {
		return errors.NewValidationError(fieldName + " must not be negative")
	}
	return nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
