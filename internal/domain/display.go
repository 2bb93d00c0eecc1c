package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser canonicalizes free-text medication type labels for display
// ("pill" -> "Pill"). English casing is fine here: the stored labels are the
// fixed enumerated values of the add-medication form.
var titleCaser = cases.Title(language.English)

// weekdayAbbrev maps Monday=1 .. Sunday=7 to short display names.
var weekdayAbbrev = map[int]string{
	1: "Mon", 2: "Tue", 3: "Wed", 4: "Thu", 5: "Fri", 6: "Sat", 7: "Sun",
}

// DisplayInterval renders a medication's recurrence rule for display:
// "Daily", "2 Days", "Monthly", or the custom weekday list ("Mon, Wed, Fri").
func (m Medication) DisplayInterval() string {
	if m.Interval == IntervalCustom && len(m.IntervalDays) > 0 {
		days := append([]int(nil), m.IntervalDays...)
		sort.Ints(days)
		names := make([]string, 0, len(days))
		for _, d := range days {
			if n, ok := weekdayAbbrev[d]; ok {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	}
	switch m.Interval {
	case IntervalTwoDays:
		return "2 Days"
	case IntervalThreeDays:
		return "3 Days"
	case IntervalWeekly:
		return "Weekly"
	case IntervalMonthly:
		return "Monthly"
	}
	return "Daily"
}

// DisplayMealRelation renders a meal relation for display. Unknown values are
// passed through unchanged so stored data never renders as empty.
func DisplayMealRelation(r MealRelation) string {
	switch r {
	case MealBefore:
		return "Before Meal"
	case MealDuring:
		return "During Meal"
	case MealAfter:
		return "After Meal"
	case MealNone:
		return "Not Relevant"
	}
	return string(r)
}

// DisplayType canonicalizes the medication type label ("pill" -> "Pill").
func DisplayType(t string) string {
	return titleCaser.String(strings.TrimSpace(t))
}
