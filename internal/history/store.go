// Package history implements the dose-action history store: a persisted,
// date-bucketed action log with an in-memory index for O(1) lookups during
// schedule building.
//
// The index is owned by the Store instance — never package-level state — and
// is rebuilt fully by Initialize at process start. Every mutating operation
// persists first and only then updates the index, so a failed write leaves
// memory and storage consistent. Mutations are serialized by the store's
// mutex; the local key-value store offers no compare-and-swap, so the
// read-modify-write cycle must not interleave within the process.
package history

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
	"github.com/medtrack/go-medtrack-backend/internal/repo"
)

// Store owns HistoryRecord persistence and the derived dose-action index.
type Store struct {
	db *gorm.DB

	mu    sync.RWMutex
	index map[string]domain.HistoryRecord // dose key -> record
	ready bool
}

// NewStore returns a Store bound to db. Call Initialize before the first
// schedule query; until then every lookup misses and historically actioned
// doses resolve as pending/overdue.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		index: make(map[string]domain.HistoryRecord),
	}
}

// Initialize loads the persisted log and rebuilds the in-memory index.
func (s *Store) Initialize(ctx context.Context) error {
	hist, err := repo.LoadHistory(ctx, s.db)
	if err != nil {
		return err
	}
	idx := make(map[string]domain.HistoryRecord)
	for _, recs := range hist {
		for _, rec := range recs {
			idx[domain.DoseKey(rec.MedicationID, rec.ScheduledTime)] = rec
		}
	}

	s.mu.Lock()
	s.index = idx
	s.ready = true
	s.mu.Unlock()
	return nil
}

// Ready reports whether Initialize has completed successfully.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Lookup returns the record for a dose, or nil when the dose has not been
// acted on. Safe for concurrent use; satisfies schedule.RecordLookup.
func (s *Store) Lookup(medicationID string, scheduled time.Time) *domain.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.index[domain.DoseKey(medicationID, scheduled)]; ok {
		return &rec
	}
	return nil
}

// Append records a dose action under its scheduled time's date bucket. Any
// existing record for the same (medication, scheduled time) is replaced —
// at most one record per dose. Persisted state is written before the index
// is touched.
func (s *Store) Append(ctx context.Context, rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist, err := repo.LoadHistory(ctx, s.db)
	if err != nil {
		return err
	}
	bucket := domain.DayKey(rec.ScheduledTime)
	hist[bucket] = append(
		withoutDose(hist[bucket], rec.MedicationID, rec.ScheduledTime),
		rec,
	)
	if err := repo.SaveHistory(ctx, s.db, hist); err != nil {
		return err
	}

	s.index[domain.DoseKey(rec.MedicationID, rec.ScheduledTime)] = rec
	return nil
}

// Remove deletes the record for a dose, if any. Used by undo. Persisted
// state is written before the index is touched.
func (s *Store) Remove(ctx context.Context, medicationID string, scheduled time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist, err := repo.LoadHistory(ctx, s.db)
	if err != nil {
		return err
	}
	bucket := domain.DayKey(scheduled)
	filtered := withoutDose(hist[bucket], medicationID, scheduled)
	if len(filtered) == 0 {
		delete(hist, bucket)
	} else {
		hist[bucket] = filtered
	}
	if err := repo.SaveHistory(ctx, s.db, hist); err != nil {
		return err
	}

	delete(s.index, domain.DoseKey(medicationID, scheduled))
	return nil
}

// Day returns the records whose scheduled times fall on the given bucket
// date (YYYY-MM-DD, UTC), in stored order.
func (s *Store) Day(ctx context.Context, dayKey string) ([]domain.HistoryRecord, error) {
	hist, err := repo.LoadHistory(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return hist[dayKey], nil
}

// All returns the full persisted log keyed by bucket date.
func (s *Store) All(ctx context.Context) (map[string][]domain.HistoryRecord, error) {
	return repo.LoadHistory(ctx, s.db)
}

// withoutDose filters out the record matching (medicationID, scheduled).
func withoutDose(recs []domain.HistoryRecord, medicationID string, scheduled time.Time) []domain.HistoryRecord {
	out := recs[:0:0]
	for _, r := range recs {
		if r.MedicationID == medicationID && r.ScheduledTime.Equal(scheduled) {
			continue
		}
		out = append(out, r)
	}
	return out
}
