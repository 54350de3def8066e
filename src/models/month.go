package models

import (
	"fmt"
	"strconv"
	"time"
)

// Month identifies a calendar month in "YYYY-MM" form. The string form sorts
// chronologically, so Month values order correctly under plain < comparison.
type Month string

// ParseMonth validates a "YYYY-MM" string and returns it as a Month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid month %q: %w", s, err)
	}
	if t.Format("2006-01") != s {
		return "", fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return Month(s), nil
}

// Index returns the month as a single integer (year*12 + month - 1), so the
// difference of two indexes is the calendar distance in months.
func (m Month) Index() int {
	year, _ := strconv.Atoi(string(m[:4]))
	mon, _ := strconv.Atoi(string(m[5:7]))
	return year*12 + mon - 1
}

// Add returns the month n calendar months after m. n may be negative.
func (m Month) Add(n int) Month {
	idx := m.Index() + n
	return Month(fmt.Sprintf("%04d-%02d", idx/12, idx%12+1))
}

func (m Month) String() string { return string(m) }
