// Package validation provides a fluent accumulating validator plus the
// domain-specific checks used at the boundary of the signal engine: tickers,
// verdict risk parameters, and backtest request parameters.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors accumulated by a Validator.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "validation errors: " + strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator accumulates field-level errors across a sequence of checks.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// AddError adds a validation error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Errors returns all validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Required validates that a string is not empty.
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
}

// MinLength validates minimum string length.
func (v *Validator) MinLength(field, value string, min int) {
	if len(value) < min {
		v.AddError(field, fmt.Sprintf("must be at least %d characters", min))
	}
}

// MaxLength validates maximum string length.
func (v *Validator) MaxLength(field, value string, max int) {
	if len(value) > max {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// MinValue validates minimum numeric value.
func (v *Validator) MinValue(field string, value, min float64) {
	if value < min {
		v.AddError(field, fmt.Sprintf("must be at least %v", min))
	}
}

// MaxValue validates maximum numeric value.
func (v *Validator) MaxValue(field string, value, max float64) {
	if value > max {
		v.AddError(field, fmt.Sprintf("must be at most %v", max))
	}
}

// Positive validates that a number is positive.
func (v *Validator) Positive(field string, value float64) {
	if value <= 0 {
		v.AddError(field, "must be positive")
	}
}

// NonNegative validates that a number is non-negative.
func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.AddError(field, "must be non-negative")
	}
}

// OneOf validates that a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// UUID validates UUID format.
func (v *Validator) UUID(field, value string) {
	if _, err := uuid.Parse(value); err != nil {
		v.AddError(field, "must be a valid UUID")
	}
}

var tickerRegex = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Ticker validates an equity ticker symbol: 1-5 uppercase letters.
func (v *Validator) Ticker(field, value string) {
	if !tickerRegex.MatchString(value) {
		v.AddError(field, "must be 1-5 uppercase letters")
	}
}

// Alphanumeric validates that a string contains only alphanumeric characters.
func (v *Validator) Alphanumeric(field, value string) {
	alphanumericRegex := regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	if !alphanumericRegex.MatchString(value) {
		v.AddError(field, "must contain only alphanumeric characters")
	}
}

// VerdictValidator validates consensus-engine risk parameters.
type VerdictValidator struct {
	*Validator
}

// NewVerdictValidator creates a validator for verdict risk parameters.
func NewVerdictValidator() *VerdictValidator {
	return &VerdictValidator{Validator: NewValidator()}
}

// ValidateRiskParams checks the BUY/SELL ordering invariant: stop_loss <
// entry_price < target_price for BUY, mirrored for SELL.
func (v *VerdictValidator) ValidateRiskParams(signalType string, entryPrice, stopLoss, targetPrice float64) {
	v.Positive("entry_price", entryPrice)
	switch signalType {
	case "BUY":
		if !(stopLoss < entryPrice && entryPrice < targetPrice) {
			v.AddError("risk_params", "require stop_loss < entry_price < target_price for BUY")
		}
	case "SELL":
		if !(targetPrice < entryPrice && entryPrice < stopLoss) {
			v.AddError("risk_params", "require target_price < entry_price < stop_loss for SELL")
		}
	}
}

// BacktestValidator validates backtest request parameters.
type BacktestValidator struct {
	*Validator
}

// NewBacktestValidator creates a validator for backtest requests.
func NewBacktestValidator() *BacktestValidator {
	return &BacktestValidator{Validator: NewValidator()}
}

// ValidateMode validates the allocation mode.
func (v *BacktestValidator) ValidateMode(mode string) {
	v.Required("mode", mode)
	if v.HasErrors() {
		return
	}
	v.OneOf("mode", mode, []string{"CORE_FOCUS", "BALANCED", "DIVERSIFIED"})
}

// ValidateCapital validates starting capital for a backtest run.
func (v *BacktestValidator) ValidateCapital(capital float64) {
	v.Positive("starting_capital", capital)
	v.MaxValue("starting_capital", capital, 1_000_000_000)
}

// ValidateHoldPeriod validates the maximum hold period in days.
func (v *BacktestValidator) ValidateHoldPeriod(days int) {
	v.Positive("hold_period_days", float64(days))
	v.MaxValue("hold_period_days", float64(days), 3650)
}

// SanitizeInput trims, strips null bytes, and caps length to prevent DoS via
// unbounded free-text fields (e.g. agent reasoning ingested from an LLM).
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	if len(input) > 10000 {
		input = input[:10000]
	}
	return input
}

// SanitizeTicker normalizes a ticker to uppercase with surrounding whitespace removed.
func SanitizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
