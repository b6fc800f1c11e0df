package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	"TrendCast/pkg/util"
)

// MemoryStore is an in-process observation table. Reads hand out copies so
// callers can never mutate the table during a pipeline run.
type MemoryStore struct {
	mu       sync.RWMutex
	byEntity map[string][]models.ObservationRecord
	category map[string]string
}

var (
	_ domrepo.ObservationStore  = (*MemoryStore)(nil)
	_ domrepo.ObservationWriter = (*MemoryStore)(nil)
)

// NewMemoryStore indexes records by entity; entity_id+date must be unique.
func NewMemoryStore(records []models.ObservationRecord) (*MemoryStore, error) {
	s := &MemoryStore{
		byEntity: make(map[string][]models.ObservationRecord),
		category: make(map[string]string),
	}
	if err := s.InsertBatch(context.Background(), records); err != nil {
		return nil, err
	}
	return s, nil
}

// InsertBatch appends records atomically, rejecting duplicates of an existing
// entity day and category changes.
func (s *MemoryStore) InsertBatch(_ context.Context, records []models.ObservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]map[string]struct{})
	days := func(id string) map[string]struct{} {
		if d, ok := seen[id]; ok {
			return d
		}
		d := make(map[string]struct{}, len(s.byEntity[id]))
		for _, r := range s.byEntity[id] {
			d[util.FormatDay(r.Date)] = struct{}{}
		}
		seen[id] = d
		return d
	}
	cats := make(map[string]string)
	for _, r := range records {
		if r.EntityID == "" {
			return &models.MalformedRecordError{Date: r.Date, Reason: "empty entity_id"}
		}
		c, ok := s.category[r.EntityID]
		if !ok {
			c, ok = cats[r.EntityID]
		}
		if ok && c != r.Category {
			return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date,
				Reason: fmt.Sprintf("category %q conflicts with %q", r.Category, c)}
		}
		cats[r.EntityID] = r.Category
		d := days(r.EntityID)
		day := util.FormatDay(r.Date)
		if _, dup := d[day]; dup {
			return &models.MalformedRecordError{EntityID: r.EntityID, Date: r.Date, Reason: "duplicate date"}
		}
		d[day] = struct{}{}
	}

	for _, r := range records {
		c := r.Clone()
		c.Date = util.TruncateDay(c.Date)
		s.byEntity[r.EntityID] = append(s.byEntity[r.EntityID], c)
		s.category[r.EntityID] = r.Category
	}
	for id := range cats {
		recs := s.byEntity[id]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	}
	return nil
}

func (s *MemoryStore) Entities(_ context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byEntity))
	for id := range s.byEntity {
		if category == "" || s.category[id] == category {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]struct{})
	for _, c := range s.category {
		set[c] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Observations returns the entity history ordered by date, or ErrEntityNotFound.
func (s *MemoryStore) Observations(_ context.Context, entityID string) ([]models.ObservationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.byEntity[entityID]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", entityID, models.ErrEntityNotFound)
	}
	return cloneAll(recs), nil
}

func (s *MemoryStore) CategoryObservations(_ context.Context, category string) ([]models.ObservationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ObservationRecord
	for id, recs := range s.byEntity {
		if s.category[id] == category {
			out = append(out, cloneAll(recs)...)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("category %s: %w", category, models.ErrEntityNotFound)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out, nil
}

func cloneAll(recs []models.ObservationRecord) []models.ObservationRecord {
	out := make([]models.ObservationRecord, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
