package rules

import (
	"fmt"

	"fraud-feature-engine/internal/domain/fraud"
	"fraud-feature-engine/internal/infrastructure/ml"
)

// Thresholds shared with previously trained models
const (
	FastLocationRatio     = 1.0
	HighValueZScore       = 3.0
	HighValueAmount       = 100000.0
	VelocityMinGapSeconds = 0.0
	VelocityMaxGapSeconds = 10.0
)

// Engine evaluates the fixed fraud rules over a feature row.
// It is stateless and safe for concurrent use.
type Engine struct{}

// NewEngine creates a new rule engine
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate returns the flags raised by f in fixed rule order:
// Fast Location, High Value, Velocity. An empty slice means no rule fired.
func (e *Engine) Evaluate(f ml.Features, amount float64) []fraud.Flag {
	flags := make([]fraud.Flag, 0, 3)

	if flag, ok := evaluateFastLocation(f); ok {
		flags = append(flags, flag)
	}
	if flag, ok := evaluateHighValue(f, amount); ok {
		flags = append(flags, flag)
	}
	if flag, ok := evaluateVelocity(f); ok {
		flags = append(flags, flag)
	}

	return flags
}

// evaluateFastLocation fires when the physically required travel time
// exceeds the observed gap between consecutive transactions
func evaluateFastLocation(f ml.Features) (fraud.Flag, bool) {
	if f.GeoVelocityCheck <= FastLocationRatio {
		return fraud.Flag{}, false
	}
	return fraud.Flag{
		Type:   fraud.FlagFastLocation,
		Reason: fmt.Sprintf("Geospatial anomaly: travel too fast (ratio %.2f).", f.GeoVelocityCheck),
	}, true
}

// evaluateHighValue fires on an extreme z-score or an absolute amount threshold
func evaluateHighValue(f ml.Features, amount float64) (fraud.Flag, bool) {
	if f.AmountZScore < HighValueZScore && amount < HighValueAmount {
		return fraud.Flag{}, false
	}
	return fraud.Flag{
		Type:   fraud.FlagHighValue,
		Reason: fmt.Sprintf("Amount deviation detected (z-score %.2f).", f.AmountZScore),
	}, true
}

// evaluateVelocity fires on a strictly positive gap under ten seconds.
// A zero gap means no predecessor (or a duplicate timestamp) and never fires.
func evaluateVelocity(f ml.Features) (fraud.Flag, bool) {
	gap := f.TimeSinceLastTxnSec
	if gap <= VelocityMinGapSeconds || gap >= VelocityMaxGapSeconds {
		return fraud.Flag{}, false
	}
	return fraud.Flag{
		Type:   fraud.FlagVelocity,
		Reason: fmt.Sprintf("last gap %ds between consecutive transactions.", int(gap)),
	}, true
}
