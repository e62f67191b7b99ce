package models

import (
	"errors"
	"fmt"

	"github.com/julianstephens/clinicsched/internal/clock"
)

// LunchBreak is an optional break inside the working window.
// Valid is false when the doctor takes no break.
type LunchBreak struct {
	Start clock.Time `json:"start"`
	End   clock.Time `json:"end"`
	Valid bool       `json:"valid"`
}

// Schedule is a doctor's daily working window.
type Schedule struct {
	ID         int        `json:"id"`
	Start      clock.Time `json:"start"`
	End        clock.Time `json:"end"`
	Lunch      LunchBreak `json:"lunch"`
	DaysInWeek int        `json:"days_in_week"`
}

// Validate checks the ordering invariant start <= lunch start <= lunch end <= end.
func (s Schedule) Validate() error {
	if s.Start.After(s.End) {
		return fmt.Errorf("work start %s is after work end %s", s.Start, s.End)
	}
	if s.DaysInWeek < 1 || s.DaysInWeek > 7 {
		return fmt.Errorf("days in week must be between 1 and 7, got %d", s.DaysInWeek)
	}
	if !s.Lunch.Valid {
		return nil
	}
	if s.Lunch.Start.After(s.Lunch.End) {
		return fmt.Errorf("lunch start %s is after lunch end %s", s.Lunch.Start, s.Lunch.End)
	}
	if s.Lunch.Start.Before(s.Start) || s.Lunch.End.After(s.End) {
		return errors.New("lunch break must lie inside the working window")
	}
	return nil
}

// WorkSeconds returns the number of seconds in the working window, excluding lunch.
func (s Schedule) WorkSeconds() int {
	total := s.End.Sub(s.Start)
	if s.Lunch.Valid {
		total -= s.Lunch.End.Sub(s.Lunch.Start)
	}
	return total
}
