// Package schedule implements the dose scheduling engine: recurrence
// evaluation, dose-time expansion, status reconciliation against recorded
// actions, and stock run-out projection. It is intentionally small and
// dependency-free:
//
//   - No I/O and no logging (callers decide how/what to log)
//   - Pure functions of their inputs plus an explicit wall-clock instant
//   - Deterministic output order (doses sorted by scheduled time)
//
// Calendar conventions: days are compared at midnight granularity, custom
// interval weekdays are numbered Monday=1 .. Sunday=7, and clock strings are
// 24-hour "HH:MM".
package schedule

import (
	"time"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// IsScheduledOn reports whether med has doses on the given calendar date.
// Both date and the medication's start date are normalized to midnight;
// dates before the start date are never scheduled.
//
// Rule table:
//   - twoDays / threeDays: day offset from start divisible by 2 / 3
//   - weekly: day offset divisible by 7
//   - monthly: same day-of-month as the start date (a start on the 31st
//     never matches months lacking that day; no rollover)
//   - custom: the date's Monday-based weekday is in the configured set;
//     an empty set means never scheduled
//   - daily and anything unrecognized: every day
func IsScheduledOn(med domain.Medication, date time.Time) bool {
	day := domain.Midnight(date)
	start, err := med.StartDay()
	if err != nil {
		return false
	}
	if day.Before(start) {
		return false
	}

	offset := daysBetween(start, day)
	switch med.Interval {
	case domain.IntervalTwoDays:
		return offset%2 == 0
	case domain.IntervalThreeDays:
		return offset%3 == 0
	case domain.IntervalWeekly:
		return offset%7 == 0
	case domain.IntervalMonthly:
		return day.Day() == start.Day()
	case domain.IntervalCustom:
		wd := domain.ISOWeekday(day)
		for _, d := range med.IntervalDays {
			if d == wd {
				return true
			}
		}
		return false
	}
	return true
}

// daysBetween counts whole calendar days from a to b (both at midnight).
// Computed via date arithmetic rather than Sub so DST transitions between
// the two days cannot skew the count.
func daysBetween(a, b time.Time) int {
	days := 0
	for y := a.Year(); y < b.Year(); y++ {
		days += 365
		if isLeap(y) {
			days++
		}
	}
	return days + b.YearDay() - a.YearDay()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
