package fraud

// FlagType names a rule that fired for a transaction
type FlagType string

const (
	FlagFastLocation FlagType = "Fast Location"
	FlagHighValue    FlagType = "High Value"
	FlagVelocity     FlagType = "Velocity"
)

// Flag is a human-readable rule violation attached to a feature row.
// Flags are derived fresh for every evaluation and never mutated.
type Flag struct {
	Type   FlagType `json:"type"`
	Reason string   `json:"reason"`
}

// Status is the caller-facing transaction status derived from the flag list
type Status string

const (
	StatusFlagged Status = "flagged"
	StatusClear   Status = "clear"
)

// StatusOf returns flagged iff at least one rule fired
func StatusOf(flags []Flag) Status {
	if len(flags) > 0 {
		return StatusFlagged
	}
	return StatusClear
}

// Primary returns the first flag, the single (type, reason) pair older
// consumers persist. ok is false when nothing fired.
func Primary(flags []Flag) (flag Flag, ok bool) {
	if len(flags) == 0 {
		return Flag{}, false
	}
	return flags[0], true
}

// Types lists the flag types in evaluation order
func Types(flags []Flag) []FlagType {
	types := make([]FlagType, len(flags))
	for i, f := range flags {
		types[i] = f.Type
	}
	return types
}
