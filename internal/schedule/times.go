package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medtrack/go-medtrack-backend/internal/domain"
)

// defaultTimes is the fixed dose-time table applied when a medication has no
// explicit dose times configured.
var defaultTimes = map[int][]string{
	1: {"08:00"},
	2: {"08:00", "20:00"},
	3: {"08:00", "14:00", "20:00"},
}

// DoseTimesFor returns the clock strings at which med is taken on a scheduled
// day. Explicit DoseTimes win; otherwise the default table covers one to
// three intakes, and higher counts fall back to an even spread across the
// waking day (first dose 08:00, subsequent doses at hour 8 + i*16/(n-1)) so
// a misconfigured medication still produces a full schedule instead of none.
func DoseTimesFor(med domain.Medication) []string {
	if len(med.DoseTimes) > 0 {
		return med.DoseTimes
	}
	if t, ok := defaultTimes[med.TimesPerDay]; ok {
		return t
	}
	if med.TimesPerDay <= 0 {
		return nil
	}
	return spreadTimes(med.TimesPerDay)
}

// spreadTimes distributes n dose times evenly between 08:00 and the end of
// the day. The even spread puts the final slot at hour 24; that is clamped to
// 23:00 so the last dose stays on the same calendar day and the slots remain
// in ascending clock order.
func spreadTimes(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hour := 8 + i*16/max(n-1, 1)
		if hour > 23 {
			hour = 23
		}
		out = append(out, fmt.Sprintf("%02d:00", hour))
	}
	return out
}

// ParseClock parses a 24-hour "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad clock string %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad clock string %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad clock string %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q out of range", s)
	}
	return hour, minute, nil
}

// At combines a calendar date with a "HH:MM" clock string into a concrete
// instant in date's location (seconds zeroed).
func At(date time.Time, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}
