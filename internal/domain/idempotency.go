package domain

import "time"

// Idempotency represents a recorded result of a previously processed dose
// action, keyed by (user_id, medication_id, key). It enables safe retries of
// take/skip/undo requests by short-circuiting replays instead of re-applying
// quantity and history side effects.
type Idempotency struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_med_key,priority:1"`
	MedicationID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_med_key,priority:2"`
	Key          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_med_key,priority:3"`
	Status       int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt    time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
