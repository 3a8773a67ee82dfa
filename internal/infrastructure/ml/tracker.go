package ml

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"fraud-feature-engine/internal/domain/transaction"
	"fraud-feature-engine/internal/infrastructure/geo"
)

// AmountStats summarizes every amount of one entity in the supplied batch.
// It is a look-ahead aggregate: a row sees the statistics of the whole
// batch, later records included, exactly as training-time preprocessing did.
type AmountStats struct {
	Count int
	Mean  float64
	Std   float64 // population standard deviation, 0 when Count < 2
}

// ComputeAmountStats returns the mean and population standard deviation of amounts
func ComputeAmountStats(amounts []float64) AmountStats {
	n := len(amounts)
	if n == 0 {
		return AmountStats{}
	}
	if n < 2 {
		return AmountStats{Count: n, Mean: amounts[0]}
	}

	mean, std := stat.PopMeanStdDev(amounts, nil)
	return AmountStats{Count: n, Mean: mean, Std: std}
}

// ZScore returns the guarded deviation of amount from the entity mean
func (s AmountStats) ZScore(amount float64) float64 {
	return (amount - s.Mean) / (s.Std + Epsilon)
}

// eventDeltas are the "since previous event" quantities of one record
type eventDeltas struct {
	sinceLastSec     float64
	distanceKm       float64
	minTravelSec     float64
	geoVelocityCheck float64
}

// entityTracker folds one entity's ordered records. observe must be called
// in processing order; each call sees only strictly earlier records.
type entityTracker struct {
	geo *geo.Model

	seen          bool
	prevTimestamp time.Time
	prevLocation  string
}

func newEntityTracker(model *geo.Model) *entityTracker {
	return &entityTracker{geo: model}
}

func (t *entityTracker) observe(r transaction.Record) eventDeltas {
	var d eventDeltas

	prevLocation := r.Location
	if t.seen {
		d.sinceLastSec = r.Timestamp.Sub(t.prevTimestamp).Seconds()
		prevLocation = t.prevLocation
	}

	d.distanceKm = t.geo.DistanceKm(prevLocation, r.Location)
	d.minTravelSec = d.distanceKm / MaxSpeedKmPerSecond
	d.geoVelocityCheck = d.minTravelSec / (d.sinceLastSec + Epsilon)

	t.seen = true
	t.prevTimestamp = r.Timestamp
	t.prevLocation = r.Location

	return d
}
