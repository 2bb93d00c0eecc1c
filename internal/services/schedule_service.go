// Package services – ScheduleService
//
// Answers "what is due on this date" and applies dose actions. Schedule
// queries are pure reads: recurrence filtering and dose building happen in
// the schedule package, status lookups hit the history store's in-memory
// index. Dose actions (take/skip/undo) are read-modify-write sequences over
// both the medication blob and the history log, serialized by the service
// mutex — background refreshes and user actions must not interleave.
package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
	"github.com/medtrack/go-medtrack-backend/internal/schedule"
)

// HistoryStore defines the dose-action log contract required by the
// schedule service. *history.Store satisfies it.
type HistoryStore interface {
	// Lookup returns the record for a dose, or nil.
	Lookup(medicationID string, scheduled time.Time) *domain.HistoryRecord

	// Append records a dose action, replacing any record for the same dose.
	Append(ctx context.Context, rec domain.HistoryRecord) error

	// Remove deletes the record for a dose.
	Remove(ctx context.Context, medicationID string, scheduled time.Time) error

	// Day returns the records bucketed under a YYYY-MM-DD date.
	Day(ctx context.Context, dayKey string) ([]domain.HistoryRecord, error)
}

// MedicationDay is one medication's reconciled schedule for a target date.
type MedicationDay struct {
	MedicationID    string        `json:"medicationId"`
	Name            string        `json:"medicationName"`
	Dosage          string        `json:"dosage"`
	Type            string        `json:"medicationType"`
	LabelColor      string        `json:"labelColor"`
	MealRelation    string        `json:"mealRelation"`
	DisplayInterval string        `json:"displayInterval"`
	Doses           []domain.Dose `json:"doses"`
}

// ScheduleService builds day schedules and applies dose actions.
type ScheduleService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Meds is the medication repository.
	Meds MedicationRepo
	// History is the dose-action store.
	History HistoryStore
	// Now returns the wall clock; overridable in tests.
	Now func() time.Time

	// mu serializes dose actions (quantity + history read-modify-write).
	mu sync.Mutex
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(db *gorm.DB, meds MedicationRepo, hist HistoryStore) *ScheduleService {
	return &ScheduleService{DB: db, Meds: meds, History: hist, Now: time.Now}
}

// DaySchedule returns the reconciled dose schedule for every medication
// scheduled on date, one MedicationDay per applicable medication, doses
// ordered by scheduled time. Statuses and badges are relative to the current
// wall clock; re-invoking refreshes them without any data mutation.
func (s *ScheduleService) DaySchedule(ctx context.Context, date time.Time) ([]MedicationDay, error) {
	meds, err := s.Meds.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	now := s.Now()

	out := make([]MedicationDay, 0, len(meds))
	for _, med := range meds {
		if !schedule.IsScheduledOn(med, date) {
			continue
		}
		out = append(out, MedicationDay{
			MedicationID:    med.ID,
			Name:            med.Name,
			Dosage:          med.Dosage,
			Type:            domain.DisplayType(med.Type),
			LabelColor:      med.LabelColor,
			MealRelation:    domain.DisplayMealRelation(med.MealRelation),
			DisplayInterval: med.DisplayInterval(),
			Doses:           schedule.BuildDay(med, date, now, s.History.Lookup),
		})
	}
	return out, nil
}

// Take records a dose as taken and consumes stock. The quantity only drops
// when enough stock remains; the dose is recorded taken either way, so a
// user who takes their last pills with a stale count does not lose the
// history entry.
func (s *ScheduleService) Take(ctx context.Context, medicationID string, scheduled time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meds, err := s.Meds.LoadMedications(ctx, s.DB)
	if err != nil {
		return err
	}
	med := findMed(meds, medicationID)
	if med == nil {
		return ErrMedicationNotFound
	}
	if int(med.CurrentQuantity) >= med.DoseAmount {
		med.CurrentQuantity -= domain.Quantity(med.DoseAmount)
		if err := s.Meds.SaveMedications(ctx, s.DB, meds); err != nil {
			return err
		}
	}
	return s.History.Append(ctx, domain.HistoryRecord{
		MedicationID:    medicationID,
		ScheduledTime:   scheduled,
		Action:          domain.ActionTaken,
		ActionTimestamp: s.Now(),
	})
}

// Skip records a dose as skipped. Stock is untouched.
func (s *ScheduleService) Skip(ctx context.Context, medicationID string, scheduled time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meds, err := s.Meds.LoadMedications(ctx, s.DB)
	if err != nil {
		return err
	}
	if findMed(meds, medicationID) == nil {
		return ErrMedicationNotFound
	}
	return s.History.Append(ctx, domain.HistoryRecord{
		MedicationID:    medicationID,
		ScheduledTime:   scheduled,
		Action:          domain.ActionSkipped,
		ActionTimestamp: s.Now(),
	})
}

// Undo reverts the recorded action for a dose. A taken dose returns its
// amount to stock; a skipped dose just loses its record. Without a record,
// ErrNoActionToUndo.
func (s *ScheduleService) Undo(ctx context.Context, medicationID string, scheduled time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.History.Lookup(medicationID, scheduled)
	if rec == nil {
		return ErrNoActionToUndo
	}

	if rec.Action == domain.ActionTaken {
		meds, err := s.Meds.LoadMedications(ctx, s.DB)
		if err != nil {
			return err
		}
		med := findMed(meds, medicationID)
		if med == nil {
			return ErrMedicationNotFound
		}
		med.CurrentQuantity += domain.Quantity(med.DoseAmount)
		if err := s.Meds.SaveMedications(ctx, s.DB, meds); err != nil {
			return err
		}
	}
	return s.History.Remove(ctx, medicationID, scheduled)
}

// HistoryDay lists the recorded actions for a calendar date. Records are
// bucketed by the UTC day of their scheduled time, while DaySchedule groups
// doses by the server's local calendar day. In zones behind UTC a late-evening
// dose therefore shows on day X in the schedule but under day X+1 here;
// callers comparing the two views must convert accordingly.
func (s *ScheduleService) HistoryDay(ctx context.Context, dayKey string) ([]domain.HistoryRecord, error) {
	return s.History.Day(ctx, dayKey)
}

// findMed returns a pointer into meds for the medication with id, or nil.
func findMed(meds []domain.Medication, id string) *domain.Medication {
	for i := range meds {
		if meds[i].ID == id {
			return &meds[i]
		}
	}
	return nil
}
