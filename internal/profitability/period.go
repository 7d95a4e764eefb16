package profitability

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidPeriod is returned when a month key is not formatted as YYYY-MM.
var ErrInvalidPeriod = errors.New("profitability: invalid period")

var monthKeyRegex = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

const monthLayout = "2006-01"

var shortMonthLabels = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

// Month is a calendar month evaluated in UTC.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(key string) (Month, error) {
	m := monthKeyRegex.FindStringSubmatch(key)
	if m == nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, key)
	}
	year, _ := strconv.Atoi(m[1])
	num, _ := strconv.Atoi(m[2])
	if num < 1 || num > 12 {
		return Month{}, fmt.Errorf("%w: month %02d out of range", ErrInvalidPeriod, num)
	}
	return Month{Year: year, Month: time.Month(num)}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// Start is midnight of the first day.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.End().AddDate(0, 0, -1).Day()
}

// Contains reports whether t falls within the month.
func (m Month) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(m.Start()) && t.Before(m.End())
}

// Add shifts the month by n months.
func (m Month) Add(n int) Month {
	return MonthOf(m.Start().AddDate(0, n, 0))
}

// Label returns the Spanish short month name.
func (m Month) Label() string {
	return shortMonthLabels[m.Month-1]
}

func (m Month) String() string {
	return m.Start().Format(monthLayout)
}

// Window returns the n months ending at m, oldest first.
func (m Month) Window(n int) []Month {
	if n <= 0 {
		return nil
	}
	months := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		months = append(months, m.Add(-i))
	}
	return months
}
