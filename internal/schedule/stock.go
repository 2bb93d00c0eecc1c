package schedule

import (
	"time"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// DefaultLowStockWindow flags medications whose projected run-out is within
// a week of today.
const DefaultLowStockWindow = 7 * 24 * time.Hour

// ProjectRunOutDate predicts the calendar date on which med's current stock
// reaches zero under its dosing and recurrence rule.
//
// Standard rules use fixed intake spacing (daily=1, twoDays=2, threeDays=3,
// weekly=7, monthly=30 — the 30-day month is a deliberate approximation,
// independent of the calendar day-of-month rule recurrence uses). With
// enough stock for n intakes, the last intake lands (n-1)*spacing days after
// the start date. Zero affordable intakes returns the start date unchanged:
// already out.
//
// Custom rules simulate consumption day by day, decrementing on days whose
// weekday is in the configured set, and return the day the remainder hits
// zero. An empty weekday set never consumes, so the start date is returned.
func ProjectRunOutDate(med domain.Medication) (time.Time, error) {
	start, err := med.StartDay()
	if err != nil {
		return time.Time{}, err
	}
	perIntake := med.DoseAmount * med.TimesPerDay
	if perIntake <= 0 {
		return start, nil
	}

	if med.Interval == domain.IntervalCustom {
		if len(med.IntervalDays) == 0 {
			return start, nil
		}
		return simulateCustom(start, int(med.CurrentQuantity), perIntake, med.IntervalDays), nil
	}

	intakes := int(med.CurrentQuantity) / perIntake
	if intakes == 0 {
		return start, nil
	}
	return start.AddDate(0, 0, (intakes-1)*med.Interval.Days()), nil
}

// simulateCustom walks forward from start, consuming perIntake units on each
// qualifying weekday. It terminates because the remainder strictly decreases
// on qualifying days and qualifying days recur at least weekly.
func simulateCustom(start time.Time, remaining, perIntake int, weekdays []int) time.Time {
	set := make(map[int]struct{}, len(weekdays))
	for _, d := range weekdays {
		set[d] = struct{}{}
	}
	day := start
	for remaining > 0 {
		if _, ok := set[domain.ISOWeekday(day)]; ok {
			remaining -= perIntake
			if remaining <= 0 {
				break
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// RunningLow reports whether the projected run-out date falls within window
// of today. Run-out dates already in the past count as low.
func RunningLow(runOut, today time.Time, window time.Duration) bool {
	return runOut.Sub(today) <= window
}
