package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/swingiq/internal/domain/plan"
)

// PlanStore holds the current plan per player. It is the caller-side state
// of the dashboard: plans live only in memory and are replaced wholesale.
type PlanStore interface {
	// Get returns a copy of the player's current plan.
	// Returns ErrNoPlan if none has been stored.
	Get(ctx context.Context, playerID string) (plan.Plan, error)

	// Replace stores p as the player's plan, discarding the previous one
	// and any notes appended to it.
	Replace(ctx context.Context, playerID string, p plan.Plan) error

	// PrependNote adds n in front of the player's notes.
	// Returns ErrNoPlan if the player has no plan.
	PrependNote(ctx context.Context, playerID string, n plan.Note) (plan.Plan, error)

	// Count returns the number of plans held.
	Count(ctx context.Context) int
}

// MemoryPlanStore implements PlanStore with a mutex-guarded map.
type MemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[string]plan.Plan
	// onChange, when set, receives the plan count after every write.
	onChange func(count int)
}

// NewMemoryPlanStore creates an empty store.
func NewMemoryPlanStore(opts ...Option) *MemoryPlanStore {
	s := &MemoryPlanStore{plans: make(map[string]plan.Plan)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryPlanStore) Get(_ context.Context, playerID string) (plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[playerID]
	if !ok {
		return plan.Plan{}, fmt.Errorf("player %q: %w", playerID, ErrNoPlan)
	}
	return p.Clone(), nil
}

func (s *MemoryPlanStore) Replace(_ context.Context, playerID string, p plan.Plan) error {
	s.mu.Lock()
	s.plans[playerID] = p.Clone()
	n := len(s.plans)
	s.mu.Unlock()
	s.notify(n)
	return nil
}

func (s *MemoryPlanStore) PrependNote(_ context.Context, playerID string, n plan.Note) (plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[playerID]
	if !ok {
		return plan.Plan{}, fmt.Errorf("player %q: %w", playerID, ErrNoPlan)
	}
	p.PrependNote(n)
	s.plans[playerID] = p
	return p.Clone(), nil
}

func (s *MemoryPlanStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}

func (s *MemoryPlanStore) notify(count int) {
	if s.onChange != nil {
		s.onChange(count)
	}
}

// Option configures a MemoryPlanStore.
type Option func(*MemoryPlanStore)

// WithOnChange registers a callback fed with the plan count after writes.
func WithOnChange(fn func(count int)) Option {
	return func(s *MemoryPlanStore) {
		s.onChange = fn
	}
}
