package domain

import "time"

// DoseStatus is the reconciled display status of one expected intake.
type DoseStatus string

// Dose statuses, in the order the reconciler decides them.
const (
	StatusTaken   DoseStatus = "taken"
	StatusSkipped DoseStatus = "skipped"
	StatusOverdue DoseStatus = "overdue"
	StatusPending DoseStatus = "pending"
)

// DoseAction is the user action recorded in a history record.
type DoseAction string

// Recorded dose actions.
const (
	ActionTaken   DoseAction = "taken"
	ActionSkipped DoseAction = "skipped"
)

// DoseIcon is a rendering hint for the consuming UI layer.
type DoseIcon string

// Icon hints: plain clock for resolved/overdue doses, alarm clock for
// upcoming ones.
const (
	IconClock      DoseIcon = "Clock"
	IconAlarmClock DoseIcon = "AlarmClock"
)

// Dose is one expected intake at a specific scheduled instant, derived from a
// medication's schedule for a given day. Doses are recomputed on every
// schedule request and never stored: a Dose is a pure function of the
// medication, the target date, the history store contents, and the wall
// clock.
type Dose struct {
	ScheduledTime time.Time  `json:"scheduledTime"`
	DisplayTime   string     `json:"displayTime"`
	Status        DoseStatus `json:"status"`
	BadgeText     string     `json:"badgeText"`
	ActionTime    *time.Time `json:"actionTime,omitempty"`
	CanUndo       bool       `json:"canUndo"`
	Icon          DoseIcon   `json:"icon"`
}

// HistoryRecord is a persisted fact that a specific dose was taken or
// skipped. At most one record exists per (MedicationID, ScheduledTime) pair.
type HistoryRecord struct {
	MedicationID    string     `json:"medicationId"`
	ScheduledTime   time.Time  `json:"scheduledTime"`
	Action          DoseAction `json:"action"`
	ActionTimestamp time.Time  `json:"actionTimestamp"`
}

// DoseKey builds the composite lookup key for a dose:
// medication id + "-" + scheduled time as RFC3339 UTC.
func DoseKey(medicationID string, scheduled time.Time) string {
	return medicationID + "-" + scheduled.UTC().Format(time.RFC3339)
}

// DayKey returns the history bucket key for a scheduled instant: the UTC
// calendar date, YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
