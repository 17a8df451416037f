package config

import (
	"fmt"
	"strings"

	"github.com/signalforge/equityedge/internal/errkind"
)

// validationError is one field's violation; validationErrors aggregates all
// of them into a single BadInput, mirroring the teacher's ValidationErrors
// pattern (report every violation at once, not just the first).
type validationError struct {
	Field   string
	Message string
}

type validationErrors []validationError

func (ve validationErrors) Error() string {
	parts := make([]string, len(ve))
	for i, e := range ve {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate enforces the handful of cross-field invariants a malformed
// config file or environment override could otherwise violate silently.
func (c Config) Validate() error {
	var errs validationErrors

	if c.Panel.DeadlineMS <= 0 {
		errs = append(errs, validationError{"panel.deadline_ms", "must be positive"})
	}
	if c.Consensus.StopLossPct <= 0 || c.Consensus.StopLossPct >= 1 {
		errs = append(errs, validationError{"consensus.stop_loss_pct", "must be in (0,1)"})
	}
	if c.Consensus.TargetPct <= 0 {
		errs = append(errs, validationError{"consensus.target_pct", "must be positive"})
	}
	if c.Consensus.Capital <= 0 {
		errs = append(errs, validationError{"consensus.capital", "must be positive"})
	}
	if c.Consensus.MaxPositionPct <= 0 || c.Consensus.MaxPositionPct > 1 {
		errs = append(errs, validationError{"consensus.max_position_pct", "must be in (0,1]"})
	}
	if c.Consensus.Thresholds.Buy <= c.Consensus.Thresholds.Sell {
		errs = append(errs, validationError{"consensus.thresholds", "buy threshold must exceed sell threshold"})
	}
	if c.Backtest.DeadlineMinutes <= 0 {
		errs = append(errs, validationError{"backtest.deadline_minutes", "must be positive"})
	}

	if len(errs) > 0 {
		return errkind.New(errkind.BadInput, "config.Validate", errs)
	}
	return nil
}
