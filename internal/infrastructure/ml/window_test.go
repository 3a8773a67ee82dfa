package ml

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// naiveWindowCounts rescans every earlier record for every position
func naiveWindowCounts(timestamps []time.Time, window time.Duration) []int {
	counts := make([]int, len(timestamps))
	for i, t := range timestamps {
		cutoff := t.Add(-window)
		for j := 0; j < i; j++ {
			if !timestamps[j].Before(cutoff) && timestamps[j].Before(t) {
				counts[i]++
			}
		}
	}
	return counts
}

func TestWindowCounts_Boundary(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	ts := []time.Time{t0, t0.Add(10 * time.Minute), t0.Add(40 * time.Minute)}

	assert.Equal(t, []int{0, 1, 1}, WindowCounts(ts, CountWindow))
}

func TestWindowCounts_ExactWindowStartIncluded(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	ts := []time.Time{t0, t0.Add(30 * time.Minute), t0.Add(30*time.Minute + time.Nanosecond)}

	assert.Equal(t, []int{0, 1, 1}, WindowCounts(ts, CountWindow))
}

func TestWindowCounts_JustPastWindowStartExcluded(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	ts := []time.Time{t0, t0.Add(30*time.Minute + time.Nanosecond)}

	assert.Equal(t, []int{0, 0}, WindowCounts(ts, CountWindow))
}

func TestWindowCounts_TiesAreNotCounted(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	ts := []time.Time{t0, t0, t0, t0.Add(time.Minute), t0.Add(time.Minute)}

	assert.Equal(t, []int{0, 0, 0, 3, 3}, WindowCounts(ts, CountWindow))
}

func TestWindowCounts_Empty(t *testing.T) {
	assert.Empty(t, WindowCounts(nil, CountWindow))
}

func TestWindowCounts_MatchesNaiveRescan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(60)
		ts := make([]time.Time, n)
		for i := range ts {
			// Coarse grid so ties and exact boundaries occur often
			ts[i] = base.Add(time.Duration(rng.Intn(24)) * 5 * time.Minute)
		}
		sort.Slice(ts, func(a, b int) bool { return ts[a].Before(ts[b]) })

		assert.Equal(t, naiveWindowCounts(ts, CountWindow), WindowCounts(ts, CountWindow), "trial %d", trial)
	}
}
