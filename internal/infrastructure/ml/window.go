package ml

import "time"

// WindowCounts returns, for every position of an ascending timestamp
// sequence, how many earlier records fall in the left-closed interval
// [t - window, t). A record exactly one window back is counted; the record
// itself and earlier records sharing its exact timestamp are not.
//
// Both pointers only move forward, so one pass covers the whole sequence.
func WindowCounts(timestamps []time.Time, window time.Duration) []int {
	counts := make([]int, len(timestamps))

	// left: first index not before the window start
	// right: first index whose timestamp is not before the current one
	left, right := 0, 0
	for i, t := range timestamps {
		cutoff := t.Add(-window)
		for left < i && timestamps[left].Before(cutoff) {
			left++
		}
		for right < i && timestamps[right].Before(t) {
			right++
		}
		if right > left {
			counts[i] = right - left
		}
	}
	return counts
}
