// Package archive turns the year and month segments of archive URLs into
// half-open date windows.
//
// All dates are UTC midnights so that they compare consistently with the
// date columns stored by the database layer.
package archive

import (
	"errors"
	"sort"
	"strconv"
	"time"
)

var (
	ErrInvalidYear  = errors.New("invalid year")
	ErrInvalidMonth = errors.New("invalid month")
)

// now is swapped out by tests.
var now = time.Now

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ParseYear accepts exactly four digits.
func ParseYear(s string) (int, error) {
	if len(s) != 4 || !digits(s) {
		return 0, ErrInvalidYear
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 {
		return 0, ErrInvalidYear
	}
	return year, nil
}

func digits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ParseMonth accepts one or two digits in 1..12.
func ParseMonth(s string) (time.Month, error) {
	if len(s) == 0 || len(s) > 2 || !digits(s) {
		return 0, ErrInvalidMonth
	}
	month, err := strconv.Atoi(s)
	if err != nil || month < 1 || month > 12 {
		return 0, ErrInvalidMonth
	}
	return time.Month(month), nil
}

func YearWindow(year int) Window {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// MonthOf returns the month window containing t.
func MonthOf(t time.Time) Window {
	return MonthWindow(t.Year(), t.Month())
}

// Date drops the clock part of t, keeping its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return Date(now().UTC())
}

// IsFuture reports whether the date lies after today.
func IsFuture(t time.Time) bool {
	return Date(t).After(Today())
}

// ParseDate parses a YYYY-MM-DD date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// Months returns the distinct months of dates, oldest first, each as the
// first day of the month.
func Months(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	var months []time.Time
	for _, d := range dates {
		first := MonthOf(d).Start
		if !seen[first] {
			seen[first] = true
			months = append(months, first)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// Years returns the distinct years of dates, oldest first.
func Years(dates []time.Time) []int {
	seen := make(map[int]bool)
	var years []int
	for _, d := range dates {
		if !seen[d.Year()] {
			seen[d.Year()] = true
			years = append(years, d.Year())
		}
	}
	sort.Ints(years)
	return years
}
