package ml

import (
	"sort"

	"fraud-feature-engine/internal/domain/transaction"
)

// EntitySequence is one entity's records in processing order. Index maps
// each position back to the record's position in the caller's input.
type EntitySequence struct {
	EntityID string
	Records  []transaction.Record
	Index    []int
}

// SortAndGroup partitions records by entity and orders each partition
// ascending by timestamp. The sort is stable so ties keep input order.
// Entities are returned in ascending id order for deterministic iteration.
func SortAndGroup(records []transaction.Record) []EntitySequence {
	positions := make(map[string][]int)
	for i, r := range records {
		positions[r.EntityID] = append(positions[r.EntityID], i)
	}

	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]EntitySequence, 0, len(ids))
	for _, id := range ids {
		idx := positions[id]
		sort.SliceStable(idx, func(a, b int) bool {
			return records[idx[a]].Timestamp.Before(records[idx[b]].Timestamp)
		})

		seq := EntitySequence{
			EntityID: id,
			Records:  make([]transaction.Record, len(idx)),
			Index:    idx,
		}
		for k, i := range idx {
			seq.Records[k] = records[i]
		}
		groups = append(groups, seq)
	}
	return groups
}
