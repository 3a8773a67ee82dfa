package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"fraud-feature-engine/internal/domain/transaction"
)

// HistoryCache keeps the newest raw transactions of each entity in a sorted
// set scored by timestamp (microseconds), members being JSON records.
// It implements transaction.HistoryRepository.
type HistoryCache struct {
	client *Client
	limit  int
	ttl    time.Duration
}

// NewHistoryCache creates a new history cache that retains limit records
// per entity and expires idle entities after ttl
func NewHistoryCache(client *Client, limit int, ttl time.Duration) *HistoryCache {
	return &HistoryCache{client: client, limit: limit, ttl: ttl}
}

func historyKey(entityID string) string {
	return fmt.Sprintf("history:entity:%s", entityID)
}

func score(ts time.Time) float64 {
	return float64(ts.UnixMicro())
}

// Recent returns at most limit records of entityID strictly before the
// given instant, ascending by timestamp
func (c *HistoryCache) Recent(ctx context.Context, entityID string, before time.Time, limit int) ([]transaction.Record, error) {
	key := historyKey(entityID)
	bound := strconv.FormatInt(before.UnixMicro(), 10)

	// Members sharing the bound's microsecond may still be earlier than before
	edge, err := c.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: bound, Max: bound})
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	opt := &redis.ZRangeBy{Min: "-inf", Max: "(" + bound}
	if limit > 0 {
		opt.Count = int64(limit)
	}
	members, err := c.client.ZRevRangeByScore(ctx, key, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	// Oldest first, so the stable sort keeps score order among equal timestamps
	ordered := make([]string, 0, len(members)+len(edge))
	for i := len(members) - 1; i >= 0; i-- {
		ordered = append(ordered, members[i])
	}
	ordered = append(ordered, edge...)

	records := make([]transaction.Record, 0, len(ordered))
	for _, member := range ordered {
		var r transaction.Record
		if err := json.Unmarshal([]byte(member), &r); err != nil {
			return nil, fmt.Errorf("failed to decode history member: %w", err)
		}
		if !r.Timestamp.Before(before) {
			continue
		}
		records = append(records, r)
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Timestamp.Before(records[b].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

// Append records transactions and trims each touched entity to the newest limit
func (c *HistoryCache) Append(ctx context.Context, records ...transaction.Record) error {
	if len(records) == 0 {
		return nil
	}

	byKey := make(map[string][]redis.Z)
	for _, r := range records {
		member, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		key := historyKey(r.EntityID)
		byKey[key] = append(byKey[key], redis.Z{Score: score(r.Timestamp), Member: string(member)})
	}

	err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, members := range byKey {
			pipe.ZAdd(ctx, key, members...)
			if c.limit > 0 {
				pipe.ZRemRangeByRank(ctx, key, 0, int64(-c.limit-1))
			}
			if c.ttl > 0 {
				pipe.Expire(ctx, key, c.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}
