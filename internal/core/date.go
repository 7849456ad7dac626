package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// JalaliDate is a Persian-calendar date. The wire form is "YYYY/M/DD":
// unpadded month, zero-padded day.
type JalaliDate struct {
	Year  int
	Month int
	Day   int
}

// String formats the date in the ledger wire form.
func (d JalaliDate) String() string {
	return fmt.Sprintf("%d/%d/%02d", d.Year, d.Month, d.Day)
}

// SameMonth reports whether both dates fall in the same Persian year and month.
func (d JalaliDate) SameMonth(o JalaliDate) bool {
	return d.Year == o.Year && d.Month == o.Month
}

// ParseJalali parses a "YYYY/M/DD" string. Leading zeros are accepted in any
// component. Entries written through the API always parse; hand-edited rows
// may not, and callers treat that as a hard error.
func ParseJalali(s string) (JalaliDate, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return JalaliDate{}, fmt.Errorf("jalali date %q: want year/month/day", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return JalaliDate{}, fmt.Errorf("jalali date %q: %w", s, err)
		}
		nums[i] = n
	}
	d := JalaliDate{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return JalaliDate{}, fmt.Errorf("jalali date %q: out of range", s)
	}
	return d, nil
}

// Clock abstracts "now" so month-bucketing logic is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TodayJalali returns the current Persian-calendar date per the clock.
func TodayJalali(clock Clock) JalaliDate {
	t := ptime.New(clock.Now())
	return JalaliDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}
