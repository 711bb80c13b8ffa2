package storage

import (
	"context"
	"errors"
	"sync"

	"adhocnet/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type networkKey struct {
	runID string
	label string
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	networks    map[networkKey]model.NetworkSnapshot
	generations map[string][]model.GenerationStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.networks = make(map[networkKey]model.NetworkSnapshot)
	s.generations = make(map[string][]model.GenerationStats)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, runID, label string, snapshot model.NetworkSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.networks[networkKey{runID: runID, label: label}] = snapshot
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, runID, label string) (model.NetworkSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.networks[networkKey{runID: runID, label: label}]
	return snapshot, ok, nil
}

func (s *MemoryStore) SaveGenerationStats(_ context.Context, runID string, stats []model.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.generations[runID] = append([]model.GenerationStats(nil), stats...)
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]model.GenerationStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.generations[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.GenerationStats(nil), stats...), true, nil
}
