// Package ticker defines the Ticker value type shared by every subsystem.
package ticker

import (
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/validation"
)

// Ticker is an equity symbol: 1-5 uppercase letters. Validation is strict;
// invalid tickers are rejected at the boundary before any network call.
type Ticker string

// Parse sanitizes and validates a raw ticker string, returning a BadInput
// error when the result does not conform.
func Parse(raw string) (Ticker, error) {
	t := Ticker(validation.SanitizeTicker(raw))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate reports whether t is a well-formed ticker.
func (t Ticker) Validate() error {
	v := validation.NewValidator()
	v.Ticker("ticker", string(t))
	if v.HasErrors() {
		return errkind.BadInputf("ticker.Validate", "%s", v.Errors().Error())
	}
	return nil
}

// String implements fmt.Stringer.
func (t Ticker) String() string { return string(t) }
