package domain

import "time"

// DayKey is a calendar date in a learner's timezone, formatted YYYY-MM-DD.
// The empty key means "no day recorded".
type DayKey string

const dayKeyLayout = "2006-01-02"

// DayKeyFor returns the calendar date of t in loc. A nil location means UTC.
func DayKeyFor(t time.Time, loc *time.Location) DayKey {
	if loc == nil {
		loc = time.UTC
	}
	return DayKey(t.In(loc).Format(dayKeyLayout))
}

// IsZero reports whether no day is recorded.
func (d DayKey) IsZero() bool {
	return d == ""
}

// Valid reports whether d is empty or a well formed date.
func (d DayKey) Valid() bool {
	if d == "" {
		return true
	}
	_, err := time.Parse(dayKeyLayout, string(d))
	return err == nil
}

func (d DayKey) String() string {
	return string(d)
}
