package schedule

import (
	"sort"
	"time"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// RecordLookup retrieves the history record for a dose, or nil when the dose
// has not been acted on. The history store's in-memory index satisfies this.
type RecordLookup func(medicationID string, scheduled time.Time) *domain.HistoryRecord

// BuildDay expands med's dose times into concrete doses for the given
// calendar date and reconciles each against recorded actions. The result is
// ordered by scheduled time ascending, one entry per configured dose time.
//
// BuildDay does not check recurrence; callers filter with IsScheduledOn
// first. Given identical inputs and the same now, the output is
// deterministic; statuses and badges shift as now advances.
func BuildDay(med domain.Medication, date, now time.Time, lookup RecordLookup) []domain.Dose {
	times := DoseTimesFor(med)
	doses := make([]domain.Dose, 0, len(times))
	for _, clock := range times {
		scheduled, err := At(date, clock)
		if err != nil {
			// Unparseable configured time: skip the slot rather than
			// failing the whole day.
			continue
		}
		var rec *domain.HistoryRecord
		if lookup != nil {
			rec = lookup(med.ID, scheduled)
		}
		res := Resolve(rec, scheduled, now)
		doses = append(doses, domain.Dose{
			ScheduledTime: scheduled,
			DisplayTime:   FormatClock(scheduled),
			Status:        res.Status,
			BadgeText:     res.BadgeText,
			ActionTime:    res.ActionTime,
			CanUndo:       res.CanUndo,
			Icon:          res.Icon,
		})
	}
	sort.Slice(doses, func(i, j int) bool {
		return doses[i].ScheduledTime.Before(doses[j].ScheduledTime)
	})
	return doses
}
