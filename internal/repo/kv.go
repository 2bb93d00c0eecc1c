// Package repo – generic key-value primitive.
//
// GetValue/SetValue are the only storage operations the scheduling engine
// requires: string key to string value, absent keys reported rather than
// errored. Higher-level codecs (medications, history) sit on top of these.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// GetValue fetches the value stored under key. The second return reports
// presence: (_, false, nil) means the key has never been written.
func GetValue(ctx context.Context, db *gorm.DB, key string) (string, bool, error) {
	var e domain.KVEntry
	err := db.WithContext(ctx).Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

// SetValue writes value under key, overwriting any previous value. The write
// is a single upsert statement, atomic with respect to concurrent readers.
func SetValue(ctx context.Context, db *gorm.DB, key, value string) error {
	e := domain.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&e).Error
}
