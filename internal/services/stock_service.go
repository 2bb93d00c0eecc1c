// Package services – StockService
//
// Projects run-out dates over the current medication list and ranks
// medications by urgency. Projection reads medication records and the
// recurrence rule only — no history access.
package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
	"github.com/medtrack/go-medtrack-backend/internal/schedule"
)

// StockItem is the stock view of one medication.
type StockItem struct {
	MedicationID    string          `json:"medicationId"`
	Name            string          `json:"medicationName"`
	Type            string          `json:"medicationType"`
	LabelColor      string          `json:"labelColor"`
	CurrentQuantity domain.Quantity `json:"currentQuantity"`
	PackageQuantity domain.Quantity `json:"packageQuantity"`
	DisplayInterval string          `json:"displayInterval"`
	RunOutDate      string          `json:"runOutDate"` // YYYY-MM-DD
	RunningLow      bool            `json:"runningLow"`
}

// StockService ranks medications by projected run-out date.
type StockService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Meds is the medication repository.
	Meds MedicationRepo
	// LowStockWindow flags medications running out within this window.
	LowStockWindow time.Duration
	// Now returns the wall clock; overridable in tests.
	Now func() time.Time
}

// NewStockService constructs a StockService with the default one-week
// low-stock window.
func NewStockService(db *gorm.DB, meds MedicationRepo) *StockService {
	return &StockService{
		DB:             db,
		Meds:           meds,
		LowStockWindow: schedule.DefaultLowStockWindow,
		Now:            time.Now,
	}
}

// Overview returns one StockItem per medication, sorted by projected
// run-out date ascending (most urgent first). Medications whose projection
// fails (unparseable start date) sort last with an empty run-out date.
func (s *StockService) Overview(ctx context.Context) ([]StockItem, error) {
	meds, err := s.Meds.LoadMedications(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	today := domain.Midnight(s.Now())

	type ranked struct {
		item   StockItem
		runOut time.Time
		ok     bool
	}
	items := make([]ranked, 0, len(meds))
	for _, med := range meds {
		it := StockItem{
			MedicationID:    med.ID,
			Name:            med.Name,
			Type:            domain.DisplayType(med.Type),
			LabelColor:      med.LabelColor,
			CurrentQuantity: med.CurrentQuantity,
			PackageQuantity: med.PackageQuantity,
			DisplayInterval: med.DisplayInterval(),
		}
		runOut, err := schedule.ProjectRunOutDate(med)
		if err != nil {
			items = append(items, ranked{item: it})
			continue
		}
		it.RunOutDate = runOut.Format("2006-01-02")
		it.RunningLow = schedule.RunningLow(runOut, today, s.LowStockWindow)
		items = append(items, ranked{item: it, runOut: runOut, ok: true})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		return items[i].runOut.Before(items[j].runOut)
	})

	out := make([]StockItem, len(items))
	for i, r := range items {
		out[i] = r.item
	}
	return out, nil
}
