// Package repo – dose history blob codec.
//
// History is persisted as one JSON object under the "medicationHistory" key,
// mapping "YYYY-MM-DD" (the scheduled time's UTC calendar date) to the
// ordered list of records for that date. Grouping by date bounds per-query
// load size; the in-memory index over this data lives in internal/history.
package repo

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// LoadHistory reads the full persisted action log, keyed by calendar date.
// Missing or malformed data decodes as an empty map.
func LoadHistory(ctx context.Context, db *gorm.DB) (map[string][]domain.HistoryRecord, error) {
	raw, ok, err := GetValue(ctx, db, domain.KeyHistory)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string][]domain.HistoryRecord{}, nil
	}
	var hist map[string][]domain.HistoryRecord
	if err := json.Unmarshal([]byte(raw), &hist); err != nil {
		return map[string][]domain.HistoryRecord{}, nil
	}
	return hist, nil
}

// SaveHistory persists the full action log in one write, keeping append and
// remove atomic at the storage level.
func SaveHistory(ctx context.Context, db *gorm.DB, hist map[string][]domain.HistoryRecord) error {
	if hist == nil {
		hist = map[string][]domain.HistoryRecord{}
	}
	b, err := json.Marshal(hist)
	if err != nil {
		return err
	}
	return SetValue(ctx, db, domain.KeyHistory, string(b))
}
