// Package repo – medication blob codec.
//
// Medications are persisted as one JSON array under the "medications" key,
// preserving the stored shape of the original app (quantity fields as numeric
// strings; see domain.Quantity).
//
// Error semantics:
//   - Storage I/O failures propagate to the caller.
//   - Malformed or missing stored JSON decodes as an empty list: read paths
//     favor availability over strict validation for a local single-user store.
package repo

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// LoadMedications reads the full medication list from the store.
func LoadMedications(ctx context.Context, db *gorm.DB) ([]domain.Medication, error) {
	raw, ok, err := GetValue(ctx, db, domain.KeyMedications)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Medication{}, nil
	}
	var meds []domain.Medication
	if err := json.Unmarshal([]byte(raw), &meds); err != nil {
		return []domain.Medication{}, nil
	}
	return meds, nil
}

// SaveMedications persists the full medication list in one write.
func SaveMedications(ctx context.Context, db *gorm.DB, meds []domain.Medication) error {
	if meds == nil {
		meds = []domain.Medication{}
	}
	b, err := json.Marshal(meds)
	if err != nil {
		return err
	}
	return SetValue(ctx, db, domain.KeyMedications, string(b))
}
