// Package ticker handles canonicalisation and validation of exchange
// symbols, broker identifiers and user ids.
package ticker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// symbolRegex matches canonical NSE-style tickers.
// Examples: RELIANCE, M&M, BAJAJ-AUTO, 500325.BO
var symbolRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9&.\-]{0,31}$`)

// brokerRegex matches lower-cased broker identifiers such as zerodha or 5paisa.
var brokerRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// userRegex matches user ids. ':' is excluded because it separates the
// parts of a storage key.
var userRegex = regexp.MustCompile(`^[A-Za-z0-9_\-.@]{1,128}$`)

var (
	ErrInvalidSymbol = errors.New("ticker: invalid symbol")
	ErrInvalidBroker = errors.New("ticker: invalid broker identifier")
	ErrInvalidUser   = errors.New("ticker: invalid user id")
)

// Canonical returns the upper-cased, trimmed form of symbol. It does not
// validate.
func Canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParseSymbol canonicalises and validates a ticker symbol.
func ParseSymbol(symbol string) (string, error) {
	s := Canonical(symbol)
	if !symbolRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return s, nil
}

// NormalizeBroker lower-cases and validates a broker identifier. Storage
// keys always use the normalized form.
func NormalizeBroker(broker string) (string, error) {
	b := strings.ToLower(strings.TrimSpace(broker))
	if !brokerRegex.MatchString(b) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBroker, broker)
	}
	return b, nil
}

// ValidateUserID reports whether userID can be embedded in a storage key.
// User ids are case-sensitive and are not rewritten.
func ValidateUserID(userID string) error {
	if !userRegex.MatchString(userID) {
		return fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return nil
}
