package ml

import "time"

// Contract constants. Previously trained classifiers depend on these exact
// values, so they are not exposed through configuration.
const (
	Epsilon             = 1e-6
	MaxSpeedKmH         = 1000.0
	MaxSpeedKmPerSecond = MaxSpeedKmH / 3600
	CountWindow         = 30 * time.Minute

	// DefaultHistoryLimit bounds the prior records used on the inference path
	DefaultHistoryLimit = 50
)
