package fraud

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopEntityCount is the number of most active entities a summary reports
const TopEntityCount = 5

// EntityActivity counts assessments per entity
type EntityActivity struct {
	EntityID string `json:"entity_id"`
	Count    int64  `json:"count"`
}

// Summary aggregates stored assessments for dashboards
type Summary struct {
	Total          int64              `json:"total"`
	Flagged        int64              `json:"flagged"`
	FlaggedPercent float64            `json:"flagged_percent"`
	ClearPercent   float64            `json:"clear_percent"`
	AverageAmount  float64            `json:"average_amount"`
	AverageFlagged float64            `json:"average_amount_flagged"`
	AverageClear   float64            `json:"average_amount_clear"`
	FlagTypeCounts map[FlagType]int64 `json:"flag_type_counts"`
	TopEntities    []EntityActivity   `json:"top_entities"`
}

// NewSummary returns an empty summary with every known flag type present
func NewSummary() *Summary {
	return &Summary{
		FlagTypeCounts: map[FlagType]int64{
			FlagFastLocation: 0,
			FlagHighValue:    0,
			FlagVelocity:     0,
		},
		TopEntities: make([]EntityActivity, 0),
	}
}

// CountFlags adds one assessment's flag types to the per-type counters
func (s *Summary) CountFlags(flags []Flag) {
	for _, f := range flags {
		s.FlagTypeCounts[f.Type]++
	}
}

// Finalize derives the percentages once Total and Flagged are set
func (s *Summary) Finalize() {
	if s.Total == 0 {
		return
	}
	s.FlaggedPercent = percent(s.Flagged, s.Total)
	s.ClearPercent = percent(s.Total-s.Flagged, s.Total)
}

// Summarize aggregates assessments held in memory
func Summarize(assessments []*Assessment) *Summary {
	s := NewSummary()

	var sum, sumFlagged, sumClear float64
	perEntity := make(map[string]int64)
	for _, a := range assessments {
		s.Total++
		sum += a.Amount
		perEntity[a.EntityID]++
		if a.IsFlagged() {
			s.Flagged++
			sumFlagged += a.Amount
			s.CountFlags(a.Flags)
		} else {
			sumClear += a.Amount
		}
	}

	if s.Total > 0 {
		s.AverageAmount = round2(sum / float64(s.Total))
	}
	if s.Flagged > 0 {
		s.AverageFlagged = round2(sumFlagged / float64(s.Flagged))
	}
	if clearCount := s.Total - s.Flagged; clearCount > 0 {
		s.AverageClear = round2(sumClear / float64(clearCount))
	}

	s.TopEntities = topEntities(perEntity, TopEntityCount)
	s.Finalize()
	return s
}

func topEntities(counts map[string]int64, n int) []EntityActivity {
	out := make([]EntityActivity, 0, len(counts))
	for id, c := range counts {
		out = append(out, EntityActivity{EntityID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].EntityID < out[j].EntityID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func percent(part, total int64) float64 {
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
