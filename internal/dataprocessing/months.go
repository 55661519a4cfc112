package dataprocessing

import "sort"

var calendarMonths = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// CalendarMonths returns the twelve month names in calendar order.
func CalendarMonths() []string {
	out := make([]string, len(calendarMonths))
	copy(out, calendarMonths[:])
	return out
}

// MonthIndex returns the 0-based calendar position of name, or -1 when name
// is not an exact, case-sensitive month name.
func MonthIndex(name string) int {
	for i, m := range calendarMonths {
		if m == name {
			return i
		}
	}
	return -1
}

// IsCalendarMonth reports whether name is a full English month name.
func IsCalendarMonth(name string) bool {
	return MonthIndex(name) >= 0
}

// SortMonths returns a copy of months in calendar order. Unknown names sort
// before January and keep their relative order.
func SortMonths(months []string) []string {
	out := make([]string, len(months))
	copy(out, months)
	sort.SliceStable(out, func(i, j int) bool {
		return MonthIndex(out[i]) < MonthIndex(out[j])
	})
	return out
}

// LatestMonth returns the calendar-latest known month in months, or "" when
// none is a calendar month.
func LatestMonth(months []string) string {
	latest, idx := "", -1
	for _, m := range months {
		if i := MonthIndex(m); i > idx {
			latest, idx = m, i
		}
	}
	return latest
}
