package schedule

import (
	"testing"
	"time"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

func med(interval domain.Interval, start string, days ...int) domain.Medication {
	return domain.Medication{
		ID:           "m1",
		Interval:     interval,
		IntervalDays: days,
		StartDate:    start,
		DoseAmount:   1,
		TimesPerDay:  1,
	}
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestIsScheduledOn_Daily(t *testing.T) {
	m := med(domain.IntervalDaily, "2025-01-06")
	for _, d := range []string{"2025-01-06", "2025-01-07", "2025-02-28", "2026-01-06"} {
		if !IsScheduledOn(m, day(d)) {
			t.Errorf("daily must be scheduled on %s", d)
		}
	}
}

func TestIsScheduledOn_BeforeStart(t *testing.T) {
	m := med(domain.IntervalDaily, "2025-01-06")
	if IsScheduledOn(m, day("2025-01-05")) {
		t.Fatal("dates before the start date are never scheduled")
	}
}

func TestIsScheduledOn_TwoDays(t *testing.T) {
	m := med(domain.IntervalTwoDays, "2025-01-06")
	if !IsScheduledOn(m, day("2025-01-06")) {
		t.Fatal("start date must be scheduled")
	}
	if IsScheduledOn(m, day("2025-01-07")) {
		t.Fatal("start+1 must not be scheduled")
	}
	if !IsScheduledOn(m, day("2025-01-08")) {
		t.Fatal("start+2 must be scheduled")
	}
}

func TestIsScheduledOn_ThreeDays(t *testing.T) {
	m := med(domain.IntervalThreeDays, "2025-01-06")
	want := map[string]bool{
		"2025-01-06": true,
		"2025-01-07": false,
		"2025-01-08": false,
		"2025-01-09": true,
	}
	for d, scheduled := range want {
		if got := IsScheduledOn(m, day(d)); got != scheduled {
			t.Errorf("%s: got %v, want %v", d, got, scheduled)
		}
	}
}

// Weekly uses true weekly anchoring (offset divisible by 7) instead of the
// original app's accidental daily fallthrough.
func TestIsScheduledOn_Weekly(t *testing.T) {
	m := med(domain.IntervalWeekly, "2025-01-06")
	if !IsScheduledOn(m, day("2025-01-06")) || !IsScheduledOn(m, day("2025-01-13")) {
		t.Fatal("weekly must fire on the start weekday")
	}
	for _, d := range []string{"2025-01-07", "2025-01-12", "2025-01-14"} {
		if IsScheduledOn(m, day(d)) {
			t.Errorf("weekly must not fire on %s", d)
		}
	}
}

func TestIsScheduledOn_Monthly(t *testing.T) {
	m := med(domain.IntervalMonthly, "2025-01-15")
	if !IsScheduledOn(m, day("2025-02-15")) || !IsScheduledOn(m, day("2025-03-15")) {
		t.Fatal("monthly must fire on the start day-of-month")
	}
	if IsScheduledOn(m, day("2025-02-14")) {
		t.Fatal("monthly must not fire on other days")
	}

	// A start on the 31st has no match in shorter months — no rollover.
	m31 := med(domain.IntervalMonthly, "2025-01-31")
	for d := day("2025-04-01"); d.Month() == time.April; d = d.AddDate(0, 0, 1) {
		if IsScheduledOn(m31, d) {
			t.Fatalf("day-31 monthly must never fire in April, fired on %s", d.Format("2006-01-02"))
		}
	}
}

func TestIsScheduledOn_CustomWeekdays(t *testing.T) {
	m := med(domain.IntervalCustom, "2025-01-06", 1, 3, 5) // Mon, Wed, Fri
	for d := day("2025-01-06"); d.Before(day("2025-01-20")); d = d.AddDate(0, 0, 1) {
		wd := domain.ISOWeekday(d)
		want := wd == 1 || wd == 3 || wd == 5
		if got := IsScheduledOn(m, d); got != want {
			t.Errorf("%s (weekday %d): got %v, want %v", d.Format("2006-01-02"), wd, got, want)
		}
	}
}

func TestIsScheduledOn_CustomEmptySet(t *testing.T) {
	m := med(domain.IntervalCustom, "2025-01-06")
	if IsScheduledOn(m, day("2025-01-06")) {
		t.Fatal("custom interval with no weekdays is never scheduled")
	}
}

func TestIsScheduledOn_UnknownIntervalDefaultsToDaily(t *testing.T) {
	m := med("every-full-moon", "2025-01-06")
	if !IsScheduledOn(m, day("2025-01-09")) {
		t.Fatal("unknown interval falls back to daily")
	}
}

func TestIsScheduledOn_BadStartDate(t *testing.T) {
	m := med(domain.IntervalDaily, "not-a-date")
	if IsScheduledOn(m, day("2025-01-06")) {
		t.Fatal("unparseable start date must not schedule")
	}
}

func TestDaysBetween_AcrossYears(t *testing.T) {
	if got := daysBetween(day("2024-12-30"), day("2025-01-02")); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	// 2024 is a leap year.
	if got := daysBetween(day("2024-02-28"), day("2024-03-01")); got != 2 {
		t.Fatalf("leap year: got %d, want 2", got)
	}
	if got := daysBetween(day("2024-01-01"), day("2025-01-01")); got != 366 {
		t.Fatalf("leap span: got %d, want 366", got)
	}
}
