package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateID is returned by Create when the id is already present.
var ErrDuplicateID = errors.New("project id already exists")

type memoryEntry struct {
	mu      sync.Mutex
	project *Project
	deleted bool
}

// MemoryStore keeps projects in process memory. Each project has its own
// lock; the map lock only guards membership.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: time.Now}
}

// SetClock overrides the timestamp source used by Update.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) Create(ctx context.Context, p *Project) error {
	if p == nil || p.ID == "" {
		return errors.New("project id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	s.entries[p.ID] = &memoryEntry{project: p.Clone()}
	return nil
}

func (s *MemoryStore) entry(id string) (*memoryEntry, func() time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id], s.now
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Project, bool, error) {
	e, _ := s.entry(id)
	if e == nil {
		return nil, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, false, nil
	}
	return e.project.Clone(), true, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch Patch) (*Project, bool, error) {
	e, now := s.entry(id)
	if e == nil {
		return nil, false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, false, nil
	}
	patch.Apply(e.project, now())
	return e.project.Clone(), true, nil
}

func (s *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*Project, error) {
	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*Project, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted && opts.Matches(e.project) {
			out = append(out, e.project.Clone())
		}
		e.mu.Unlock()
	}
	SortNewestFirst(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return true, nil
}

func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		if e.project.UpdatedAt.Before(cutoff) {
			e.deleted = true
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }

// SortNewestFirst orders projects by creation time, newest first, breaking
// ties by id.
func SortNewestFirst(projects []*Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
