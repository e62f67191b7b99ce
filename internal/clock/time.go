// Package clock provides the wall-clock time-of-day and calendar-date values
// appointments and schedules are expressed in.
package clock

import (
	"fmt"
	"time"

	"github.com/julianstephens/clinicsched/internal/constants"
)

const (
	// SecondsPerDay is the number of seconds in a civil day.
	SecondsPerDay = 24 * 60 * 60
	// MaxSeconds is the largest representable time of day (23:59:59) in seconds.
	MaxSeconds = SecondsPerDay - 1
)

// Time is an immutable time of day with one-second resolution.
// The zero value is midnight (00:00:00).
type Time struct {
	sec int
}

// NewTime builds a Time from its components.
func NewTime(hour, minute, second int) (Time, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return Time{}, fmt.Errorf("invalid time of day %02d:%02d:%02d", hour, minute, second)
	}
	return Time{sec: hour*3600 + minute*60 + second}, nil
}

// FromSeconds returns the Time sec seconds after midnight.
func FromSeconds(sec int) (Time, error) {
	if sec < 0 || sec > MaxSeconds {
		return Time{}, fmt.Errorf("seconds %d outside of day range [0, %d]", sec, MaxSeconds)
	}
	return Time{sec: sec}, nil
}

// ParseTime parses HH:MM:SS or HH:MM.
func ParseTime(s string) (Time, error) {
	t, err := time.Parse(constants.TimeFormat, s)
	if err != nil {
		var shortErr error
		t, shortErr = time.Parse(constants.ShortTimeFormat, s)
		if shortErr != nil {
			return Time{}, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", s)
		}
	}
	return Time{sec: t.Hour()*3600 + t.Minute()*60 + t.Second()}, nil
}

// MustParseTime is like ParseTime but panics on error. Intended for tests and constants.
func MustParseTime(s string) Time {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Seconds returns the number of seconds since midnight.
func (t Time) Seconds() int { return t.sec }

func (t Time) Hour() int   { return t.sec / 3600 }
func (t Time) Minute() int { return t.sec % 3600 / 60 }
func (t Time) Second() int { return t.sec % 60 }

// Add shifts t by the given number of seconds. The second result is false when
// the shift would cross a day boundary, in which case the returned Time is the zero value.
func (t Time) Add(seconds int) (Time, bool) {
	s := t.sec + seconds
	if s < 0 || s > MaxSeconds {
		return Time{}, false
	}
	return Time{sec: s}, true
}

// Sub returns t-u in seconds.
func (t Time) Sub(u Time) int { return t.sec - u.sec }

func (t Time) Before(u Time) bool { return t.sec < u.sec }
func (t Time) After(u Time) bool  { return t.sec > u.sec }
func (t Time) Equal(u Time) bool  { return t.sec == u.sec }

// Compare returns -1, 0 or +1.
func (t Time) Compare(u Time) int {
	switch {
	case t.sec < u.sec:
		return -1
	case t.sec > u.sec:
		return 1
	}
	return 0
}

// IsZero reports whether t is midnight.
func (t Time) IsZero() bool { return t.sec == 0 }

// String formats t as HH:MM:SS.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Short formats t as HH:MM, dropping seconds.
func (t Time) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Time) UnmarshalText(b []byte) error {
	parsed, err := ParseTime(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Max returns the later of a and b.
func Max(a, b Time) Time {
	if a.After(b) {
		return a
	}
	return b
}
