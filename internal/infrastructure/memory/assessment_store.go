package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fraud-feature-engine/internal/domain/fraud"
)

// AssessmentStore implements fraud.AssessmentRepository in memory
type AssessmentStore struct {
	mu          sync.RWMutex
	assessments map[uuid.UUID]*fraud.Assessment
	order       []uuid.UUID
}

// NewAssessmentStore creates an empty assessment store
func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{assessments: make(map[uuid.UUID]*fraud.Assessment)}
}

func (s *AssessmentStore) SaveBatch(ctx context.Context, assessments []*fraud.Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range assessments {
		if _, exists := s.assessments[a.ID]; !exists {
			s.order = append(s.order, a.ID)
		}
		s.assessments[a.ID] = a
	}
	return nil
}

func (s *AssessmentStore) GetByID(ctx context.Context, id uuid.UUID) (*fraud.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.assessments[id]; ok {
		return a, nil
	}
	return nil, fraud.ErrAssessmentNotFound
}

func (s *AssessmentStore) List(ctx context.Context, filter fraud.ListFilter) ([]*fraud.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*fraud.Assessment
	for _, id := range s.order {
		a := s.assessments[id]
		if filter.EntityID != "" && a.EntityID != filter.EntityID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		results = append(results, a)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*fraud.Assessment{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (s *AssessmentStore) MarkNotified(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assessments[id]
	if !ok {
		return fraud.ErrAssessmentNotFound
	}
	a.NotificationSent = true
	return nil
}

func (s *AssessmentStore) Summary(ctx context.Context) (*fraud.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*fraud.Assessment, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.assessments[id])
	}
	return fraud.Summarize(all), nil
}

func (s *AssessmentStore) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.order))
	s.assessments = make(map[uuid.UUID]*fraud.Assessment)
	s.order = nil
	return n, nil
}
