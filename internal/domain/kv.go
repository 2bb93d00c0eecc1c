package domain

import "time"

// Storage keys for the two logical blobs the engine persists. Everything the
// core needs from storage is get/set on these keys.
const (
	KeyMedications = "medications"
	KeyHistory     = "medicationHistory"
)

// KVEntry is the generic key-value row backing the local store. Medication
// and history data are JSON blobs stored under KeyMedications and KeyHistory,
// preserving the stored shape of the original app's key-value storage.
type KVEntry struct {
	Key       string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Value     string    `gorm:"type:TEXT NOT NULL"`
	UpdatedAt time.Time `gorm:"type:DATETIME NOT NULL"`
}

// TableName implements the GORM tabler interface.
func (KVEntry) TableName() string { return "kv_entries" }
