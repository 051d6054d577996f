// Package insightstore keeps the most recently generated insight list for
// presentation layers. Each refresh replaces the list wholesale.
package insightstore

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Generator produces a fresh insight list. *insights.Engine satisfies it.
type Generator interface {
	Generate(ctx context.Context) []domain.Insight
}

// Status describes the cached list.
type Status struct {
	Loading     bool       `json:"loading"`
	Count       int        `json:"count"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// Store caches the last generated insight list. It is safe for concurrent use.
// Overlapping refreshes are not coordinated: whichever finishes last wins.
type Store struct {
	gen Generator
	now func() time.Time

	mu          sync.RWMutex
	insights    []domain.Insight
	loaded      bool
	inFlight    int
	refreshedAt time.Time
}

func New(gen Generator) *Store {
	return &Store{gen: gen, now: time.Now}
}

// Refresh runs a generation pass and replaces the cached list with its result.
func (s *Store) Refresh(ctx context.Context) []domain.Insight {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	result := s.gen.Generate(ctx)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	s.Replace(result)
	return cloneInsights(result)
}

// Replace swaps in a list produced elsewhere, e.g. by a refresh job.
func (s *Store) Replace(list []domain.Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insights = cloneInsights(list)
	s.loaded = true
	s.refreshedAt = s.now()
}

// Insights returns a copy of the cached list.
func (s *Store) Insights() []domain.Insight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInsights(s.insights)
}

// Loaded reports whether any list has been stored since creation.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Dismiss removes the insight with the given id and reports whether it existed.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, in := range s.insights {
		if in.ID == id {
			s.insights = append(s.insights[:i:i], s.insights[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cached list. A cleared store still counts as loaded.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = []domain.Insight{}
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loading: s.inFlight > 0,
		Count:   len(s.insights),
	}
	if !s.refreshedAt.IsZero() {
		t := s.refreshedAt
		st.RefreshedAt = &t
	}
	return st
}

func cloneInsights(list []domain.Insight) []domain.Insight {
	out := make([]domain.Insight, len(list))
	copy(out, list)
	return out
}
