// Package services – MedicationService
//
// Manages the medication list: create, update, delete, list, get, and
// restock. The list is persisted as a single blob, so every mutation is a
// read-modify-write cycle; the service's mutex enforces the single-writer
// discipline the local store requires (it has no compare-and-swap).
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
	"github.com/medtrack/go-medtrack-backend/internal/schedule"
	"github.com/medtrack/go-medtrack-backend/internal/search"
)

// MedicationRepo defines the persistence contract required by the services.
// The medication list loads and saves as a whole, mirroring the stored shape.
type MedicationRepo interface {
	// LoadMedications reads the full medication list.
	LoadMedications(ctx context.Context, db *gorm.DB) ([]domain.Medication, error)

	// SaveMedications persists the full medication list in one write.
	SaveMedications(ctx context.Context, db *gorm.DB, meds []domain.Medication) error
}

// RestockMode selects how a restock amount is interpreted.
type RestockMode string

// Restock by whole packages (amount × packageQuantity units) or single units.
const (
	RestockPackages RestockMode = "package"
	RestockUnits    RestockMode = "units"
)

// MedicationService provides medication CRUD and restocking.
type MedicationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the medication repository used by this service.
	Repo MedicationRepo

	// mu serializes read-modify-write cycles on the medication blob.
	mu sync.Mutex
}

// NewMedicationService constructs a MedicationService over db.
func NewMedicationService(db *gorm.DB, r MedicationRepo) *MedicationService {
	return &MedicationService{DB: db, Repo: r}
}

// List returns all registered medications.
func (s *MedicationService) List(ctx context.Context) ([]domain.Medication, error) {
	return s.Repo.LoadMedications(ctx, s.DB)
}

// Search returns medications whose name or description matches the query,
// ranked best first. Partial words match, so a half-typed name still finds
// its medication. An empty query returns the full list.
func (s *MedicationService) Search(ctx context.Context, query string) ([]domain.Medication, error) {
	meds, err := s.Repo.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return meds, nil
	}
	entries := make([]search.Entry, len(meds))
	byID := make(map[string]domain.Medication, len(meds))
	for i, m := range meds {
		entries[i] = search.Entry{ID: m.ID, Text: m.Name + " " + m.Description}
		byID[m.ID] = m
	}
	idx := search.NewIndex(entries)
	results := idx.TopK(query, len(meds))
	out := make([]domain.Medication, 0, len(results))
	for _, r := range results {
		if m, ok := byID[r.ID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Get returns one medication by id, or ErrMedicationNotFound.
func (s *MedicationService) Get(ctx context.Context, id string) (*domain.Medication, error) {
	meds, err := s.Repo.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	for i := range meds {
		if meds[i].ID == id {
			return &meds[i], nil
		}
	}
	return nil, ErrMedicationNotFound
}

// Create validates med, assigns it a fresh id, and appends it to the list.
func (s *MedicationService) Create(ctx context.Context, med domain.Medication) (*domain.Medication, error) {
	if err := validateMedication(med); err != nil {
		return nil, err
	}
	med.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	meds, err := s.Repo.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	meds = append(meds, med)
	if err := s.Repo.SaveMedications(ctx, s.DB, meds); err != nil {
		return nil, err
	}
	return &med, nil
}

// Update validates and replaces the medication with med.ID.
func (s *MedicationService) Update(ctx context.Context, med domain.Medication) (*domain.Medication, error) {
	if err := validateMedication(med); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	meds, err := s.Repo.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	for i := range meds {
		if meds[i].ID == med.ID {
			meds[i] = med
			if err := s.Repo.SaveMedications(ctx, s.DB, meds); err != nil {
				return nil, err
			}
			return &med, nil
		}
	}
	return nil, ErrMedicationNotFound
}

// Delete removes the medication with the given id.
func (s *MedicationService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meds, err := s.Repo.LoadMedications(ctx, s.DB)
	if err != nil {
		return err
	}
	kept := meds[:0:0]
	for _, m := range meds {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(meds) {
		return ErrMedicationNotFound
	}
	return s.Repo.SaveMedications(ctx, s.DB, kept)
}

// Restock increases a medication's current quantity by amount packages
// (amount × packageQuantity units) or amount single units, and returns the
// updated medication.
func (s *MedicationService) Restock(ctx context.Context, id string, mode RestockMode, amount int) (*domain.Medication, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRestock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	meds, err := s.Repo.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	for i := range meds {
		if meds[i].ID != id {
			continue
		}
		switch mode {
		case RestockPackages:
			meds[i].CurrentQuantity += domain.Quantity(amount * int(meds[i].PackageQuantity))
		case RestockUnits:
			meds[i].CurrentQuantity += domain.Quantity(amount)
		default:
			return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRestock, mode)
		}
		if err := s.Repo.SaveMedications(ctx, s.DB, meds); err != nil {
			return nil, err
		}
		return &meds[i], nil
	}
	return nil, ErrMedicationNotFound
}

// validateMedication checks the invariants the engine assumes. Recurrence
// configuration errors are caught here, at the CRUD boundary, so the pure
// engine never sees them.
func validateMedication(m domain.Medication) error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidMedication)
	case m.CurrentQuantity < 0 || m.PackageQuantity < 0:
		return fmt.Errorf("%w: quantities must be non-negative", ErrInvalidMedication)
	case m.DoseAmount <= 0:
		return fmt.Errorf("%w: dose amount must be positive", ErrInvalidMedication)
	case m.TimesPerDay <= 0:
		return fmt.Errorf("%w: times per day must be positive", ErrInvalidMedication)
	}
	if _, err := m.StartDay(); err != nil {
		return fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidMedication)
	}
	if m.Interval == domain.IntervalCustom {
		if len(m.IntervalDays) == 0 {
			return fmt.Errorf("%w: custom interval needs at least one weekday", ErrInvalidMedication)
		}
		for _, d := range m.IntervalDays {
			if d < 1 || d > 7 {
				return fmt.Errorf("%w: weekday %d out of range 1-7", ErrInvalidMedication, d)
			}
		}
	}
	for _, clock := range m.DoseTimes {
		if _, _, err := schedule.ParseClock(clock); err != nil {
			return fmt.Errorf("%w: bad dose time %q", ErrInvalidMedication, clock)
		}
	}
	return nil
}
