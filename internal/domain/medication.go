// Package domain defines the core model for the medication tracker: the
// persisted Medication record, the derived Dose view, the dose-action history
// record, and the GORM-mapped storage entities. These types are shared across
// the repository, history-store, service, and HTTP layers.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Interval is the recurrence pattern governing which calendar days a
// medication is active.
type Interval string

// Recognized interval rules. Unknown values fall back to daily.
const (
	IntervalDaily     Interval = "daily"
	IntervalTwoDays   Interval = "twoDays"
	IntervalThreeDays Interval = "threeDays"
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalCustom    Interval = "custom"
)

// Days returns the fixed day-count between intakes for a standard interval.
// Monthly is approximated as 30 days; this approximation is intentional and
// only used by the stock projector, not by recurrence evaluation.
func (i Interval) Days() int {
	switch i {
	case IntervalTwoDays:
		return 2
	case IntervalThreeDays:
		return 3
	case IntervalWeekly:
		return 7
	case IntervalMonthly:
		return 30
	default:
		return 1
	}
}

// MealRelation describes how an intake relates to meals.
type MealRelation string

// Recognized meal relations.
const (
	MealNone   MealRelation = "notRelevant"
	MealBefore MealRelation = "beforeMeal"
	MealDuring MealRelation = "duringMeal"
	MealAfter  MealRelation = "afterMeal"
)

// Quantity is a non-negative unit count that round-trips through the legacy
// stored JSON shape, where quantity fields are encoded as numeric strings
// (e.g. "30"). It marshals as a quoted string and accepts either a string or
// a bare number when unmarshaling, so existing stored data keeps loading.
type Quantity int

// MarshalJSON encodes the quantity as a numeric string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(q)))
}

// UnmarshalJSON accepts both `"30"` and `30`.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("quantity %q is not numeric", s)
		}
		*q = Quantity(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n)
	return nil
}

// Medication is a registered medication with its dosing schedule. The JSON
// tags match the stored shape of the `medications` key exactly; see Quantity
// for the numeric-string legacy encoding of the quantity fields.
//
// Invariants:
//   - CurrentQuantity and PackageQuantity are non-negative.
//   - DoseAmount and TimesPerDay are positive.
//   - IntervalDays is non-empty iff Interval == IntervalCustom
//     (weekdays numbered Monday=1 .. Sunday=7).
type Medication struct {
	ID              string       `json:"id"`
	Name            string       `json:"medicationName"`
	Dosage          string       `json:"dosage"`
	Description     string       `json:"description"`
	Type            string       `json:"medicationType"`
	CurrentQuantity Quantity     `json:"currentQuantity"`
	PackageQuantity Quantity     `json:"packageQuantity"`
	DoseAmount      int          `json:"doseAmount"`
	TimesPerDay     int          `json:"timesPerDay"`
	DoseTimes       []string     `json:"doseTimes"`
	MealRelation    MealRelation `json:"mealRelation"`
	Interval        Interval     `json:"interval"`
	IntervalDays    []int        `json:"intervalDays"`
	StartDate       string       `json:"startDate"` // YYYY-MM-DD
	LabelColor      string       `json:"labelColor"`
}

// StartDay parses StartDate as a local calendar day (midnight).
func (m Medication) StartDay() (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", m.StartDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("medication %s: bad start date %q: %w", m.ID, m.StartDate, err)
	}
	return t, nil
}

// ISOWeekday maps t's weekday to the Monday=1 .. Sunday=7 numbering used by
// custom interval rules.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// Midnight truncates t to midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
