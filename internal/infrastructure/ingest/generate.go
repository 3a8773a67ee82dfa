package ingest

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"

	"fraud-feature-engine/internal/domain/transaction"
)

// Synthetic fraud labels
const (
	LabelNormal = 0
	LabelFraud  = 1
)

// DefaultCategories are the merchant categories used by generated data
var DefaultCategories = []string{"Electronics", "Grocery", "Travel", "Utilities", "Entertainment", "Food"}

// GeneratorConfig shapes a synthetic dataset
type GeneratorConfig struct {
	Entities   int
	PerEntity  int
	FraudRate  float64 // share of records turned into a fraud pattern
	Start      time.Time
	Seed       int64
	Locations  []string
	Categories []string
}

// Generate builds labelled synthetic transactions ordered by timestamp.
// Fraud records follow one of three patterns: a burst seconds after the
// previous transaction, an outsized amount, or a distant city minutes later.
func Generate(cfg GeneratorConfig) ([]transaction.Record, error) {
	if cfg.Entities <= 0 || cfg.PerEntity <= 0 {
		return nil, fmt.Errorf("entities and per-entity counts must be positive")
	}
	if len(cfg.Locations) < 2 {
		return nil, fmt.Errorf("at least two locations are required")
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	records := make([]transaction.Record, 0, cfg.Entities*cfg.PerEntity)

	for e := 0; e < cfg.Entities; e++ {
		entityID := fmt.Sprintf("%s_%d", faker.Username(), e)
		home := cfg.Locations[rng.Intn(len(cfg.Locations))]
		favorite := cfg.Categories[rng.Intn(len(cfg.Categories))]
		base := 200 + rng.Float64()*2000
		ts := cfg.Start.Add(time.Duration(rng.Intn(24*60)) * time.Minute)

		for i := 0; i < cfg.PerEntity; i++ {
			gap := time.Duration(1+rng.Intn(12*60)) * time.Minute
			location := home
			if rng.Float64() < 0.15 {
				location = cfg.Locations[rng.Intn(len(cfg.Locations))]
			}
			category := favorite
			if rng.Float64() < 0.3 {
				category = cfg.Categories[rng.Intn(len(cfg.Categories))]
			}
			amount := base * (0.5 + rng.Float64())
			label := LabelNormal

			if i > 0 && rng.Float64() < cfg.FraudRate {
				label = LabelFraud
				switch rng.Intn(3) {
				case 0:
					gap = time.Duration(2+rng.Intn(7)) * time.Second
				case 1:
					amount *= 20 + rng.Float64()*30
				default:
					gap = time.Duration(5+rng.Intn(15)) * time.Minute
					location = elsewhere(cfg.Locations, home, rng)
				}
			}
			if i > 0 {
				ts = ts.Add(gap)
			}

			l := label
			records = append(records, transaction.Record{
				ID:        uuid.New(),
				EntityID:  entityID,
				Timestamp: ts,
				Amount:    float64(int64(amount*100)) / 100,
				Location:  location,
				Category:  category,
				Label:     &l,
			})
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Timestamp.Before(records[b].Timestamp)
	})
	return records, nil
}

// elsewhere picks any location other than home
func elsewhere(locations []string, home string, rng *rand.Rand) string {
	for {
		if l := locations[rng.Intn(len(locations))]; l != home {
			return l
		}
	}
}
