package window

import (
	"sort"
	"sync"
	"time"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// Store is the authoritative in-memory table of workspace windows keyed by
// integer id. It is constructed explicitly and passed to collaborators;
// nothing in the codebase reaches for a shared global.
//
// All mutation is serialized through the store's mutex. Reads hand out deep
// copies, so a snapshot is safe to hold but goes stale after the next write.
type Store struct {
	mu      sync.RWMutex
	records map[int]*types.WindowRecord // Protected by mu
	metrics *monitoring.Metrics
}

// Mutation is a partial window update. Nil fields leave the current value
// untouched; Tags replaces the whole set when non-nil.
type Mutation struct {
	Kind           *types.Kind           `json:"kind,omitempty"`
	Position       *types.Position       `json:"position,omitempty"`
	Content        *string               `json:"content,omitempty"`
	Tags           []string              `json:"tags,omitempty"`
	ExportTemplate *types.ExportTemplate `json:"export_template,omitempty"`
	Minimized      *bool                 `json:"is_minimized,omitempty"`
	Maximized      *bool                 `json:"is_maximized,omitempty"`
	Opacity        *float64              `json:"opacity,omitempty"`
}

// NewStore creates an empty window store.
func NewStore() *Store {
	return &Store{
		records: make(map[int]*types.WindowRecord),
	}
}

// WithMetrics adds metrics tracking to the store.
func (s *Store) WithMetrics(metrics *monitoring.Metrics) *Store {
	s.metrics = metrics
	return s
}

// Create adds a window with the given kind, id, and position, stamping both
// timestamps. A record already present at id is overwritten, last write
// wins. Imports that must not clobber existing windows go through the
// workspace reconciler instead, which allocates fresh ids on collision.
func (s *Store) Create(kind types.Kind, id int, pos types.Position) types.WindowRecord {
	now := time.Now().UTC()
	rec := &types.WindowRecord{
		ID:       id,
		Kind:     kind,
		Position: pos,
		State: types.WindowState{
			ExportTemplate: types.TemplateAnnotated,
			Opacity:        1,
		},
		CreatedAt:    now,
		LastModified: now,
	}

	s.mu.Lock()
	s.records[id] = rec
	count := len(s.records)
	s.mu.Unlock()

	s.trackCount(count, true)
	return rec.Clone()
}

// Insert adds a fully materialized record, preserving its timestamps when
// set. It shares Create's overwrite semantics.
func (s *Store) Insert(rec types.WindowRecord) types.WindowRecord {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastModified.IsZero() {
		rec.LastModified = now
	}
	stored := rec.Clone()

	s.mu.Lock()
	s.records[rec.ID] = &stored
	count := len(s.records)
	s.mu.Unlock()

	s.trackCount(count, true)
	return stored.Clone()
}

// Get retrieves a window by id.
func (s *Store) Get(id int) (types.WindowRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return types.WindowRecord{}, false
	}

	// Return a copy to prevent external modifications
	return rec.Clone(), true
}

// Update applies mutate to the record at id and bumps lastModified. The id
// itself is fixed; changes the mutator makes to it are discarded.
func (s *Store) Update(id int, mutate func(*types.WindowRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return false
	}

	mutate(rec)
	rec.ID = id

	if now := time.Now().UTC(); now.After(rec.LastModified) {
		rec.LastModified = now
	}

	return true
}

// Apply performs a partial update and returns the resulting record.
func (s *Store) Apply(id int, mut Mutation) (types.WindowRecord, bool) {
	ok := s.Update(id, func(rec *types.WindowRecord) {
		if mut.Kind != nil {
			rec.Kind = *mut.Kind
		}
		if mut.Position != nil {
			rec.Position = *mut.Position
		}
		if mut.Content != nil {
			rec.State.Content = *mut.Content
		}
		if mut.Tags != nil {
			rec.State.Tags = append([]string(nil), mut.Tags...)
			rec.State.NormalizeTags()
		}
		if mut.ExportTemplate != nil {
			rec.State.ExportTemplate = *mut.ExportTemplate
		}
		if mut.Minimized != nil {
			rec.State.IsMinimized = *mut.Minimized
		}
		if mut.Maximized != nil {
			rec.State.IsMaximized = *mut.Maximized
		}
		if mut.Opacity != nil {
			rec.State.Opacity = *mut.Opacity
		}
	})
	if !ok {
		return types.WindowRecord{}, false
	}
	return s.Get(id)
}

// Remove deletes a window by id.
func (s *Store) Remove(id int) bool {
	s.mu.Lock()
	_, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	count := len(s.records)
	s.mu.Unlock()

	if ok {
		s.trackCount(count, false)
	}
	return ok
}

// List returns all windows ordered by id ascending.
func (s *Store) List() []types.WindowRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.WindowRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes every window and reports how many were dropped.
func (s *Store) Clear() int {
	s.mu.Lock()
	dropped := len(s.records)
	s.records = make(map[int]*types.WindowRecord)
	s.mu.Unlock()

	s.trackCount(0, false)
	return dropped
}

// Count returns the number of windows.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MaxID returns the highest id in use, or 0 when empty.
func (s *Store) MaxID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxIDLocked()
}

// NextID returns the next id strictly greater than every id in use.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxIDLocked() + 1
}

// maxIDLocked scans for the highest id. Must hold mu.
func (s *Store) maxIDLocked() int {
	max := 0
	for id := range s.records {
		if id > max {
			max = id
		}
	}
	return max
}

// Stats summarizes the store.
func (s *Store) Stats() types.WorkspaceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.WorkspaceStats{
		TotalWindows: len(s.records),
		MaxID:        s.maxIDLocked(),
		Kinds:        make(map[string]int),
	}
	for _, rec := range s.records {
		stats.Kinds[string(rec.Kind)]++
	}
	return stats
}

func (s *Store) trackCount(count int, created bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetWindowsActive(count)
	if created {
		s.metrics.IncWindowsCreated()
	}
}
