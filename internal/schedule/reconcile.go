package schedule

import (
	"fmt"
	"time"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// Timing windows for status reconciliation. The overdue boundary is
// exclusive: a dose exactly graceWindow past its scheduled time is still
// pending.
const (
	graceWindow    = 10 * time.Minute
	upcomingWindow = 60 * time.Minute
)

// Resolution is the reconciled display state of a single dose.
type Resolution struct {
	Status     domain.DoseStatus
	BadgeText  string
	ActionTime *time.Time
	CanUndo    bool
	Icon       domain.DoseIcon
}

// Resolve merges one expected dose with its (possibly absent) history record
// and the wall clock. Decision order, first match wins:
//
//  1. A record exists: status taken/skipped, badge "Taken HH:MM" /
//     "Skipped HH:MM" from the action timestamp (24-hour local), undoable.
//  2. More than 10 minutes past due: overdue, badge "Overdue".
//  3. Due within the next 60 minutes (or inside the grace window): pending,
//     badge "Now" when already due, else "in Nm" with whole minutes left.
//  4. Further out: pending with an empty badge.
//
// Re-evaluating periodically with a fresh now is how callers keep badges
// current without refetching data.
func Resolve(rec *domain.HistoryRecord, scheduled, now time.Time) Resolution {
	if rec != nil {
		at := rec.ActionTimestamp
		label := "Taken"
		if rec.Action == domain.ActionSkipped {
			label = "Skipped"
		}
		return Resolution{
			Status:     domain.DoseStatus(rec.Action),
			BadgeText:  fmt.Sprintf("%s %s", label, FormatClock(at.Local())),
			ActionTime: &at,
			CanUndo:    true,
			Icon:       domain.IconClock,
		}
	}

	until := scheduled.Sub(now)
	switch {
	case until < -graceWindow:
		return Resolution{Status: domain.StatusOverdue, BadgeText: "Overdue", Icon: domain.IconClock}
	case until <= upcomingWindow:
		badge := "Now"
		if until > 0 {
			badge = fmt.Sprintf("in %dm", int(until.Minutes()))
		}
		return Resolution{Status: domain.StatusPending, BadgeText: badge, Icon: domain.IconAlarmClock}
	default:
		return Resolution{Status: domain.StatusPending, BadgeText: "", Icon: domain.IconAlarmClock}
	}
}

// FormatClock renders t as a 24-hour "HH:MM" string.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}
