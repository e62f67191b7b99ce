package optimizer

import (
	"errors"
	"fmt"

	"github.com/julianstephens/clinicsched/internal/clock"
)

var (
	// ErrMalformedSchedule is returned when the schedule breaks
	// start <= lunch start <= lunch end <= end.
	ErrMalformedSchedule = errors.New("malformed schedule")
	// ErrUnschedulable is matched by every *UnschedulableError.
	ErrUnschedulable = errors.New("appointment cannot be scheduled")
	// ErrCanceled is returned when the run's context ends mid-search. The
	// context's own error is wrapped alongside it.
	ErrCanceled = errors.New("optimization canceled")
	// ErrTooManyPending is returned when one date holds more unfinished
	// appointments than the weights can price without overflow.
	ErrTooManyPending = errors.New("too many unfinished appointments on one date")
)

// UnschedulableError reports an appointment that kept failing until it was
// pushed past the reschedule horizon.
type UnschedulableError struct {
	AppointmentID int
	Weeks         int
	Requested     clock.Date
	LastTried     clock.Date
}

func (e *UnschedulableError) Error() string {
	return fmt.Sprintf("cannot schedule appointment %d within %d weeks of %s (last tried %s)",
		e.AppointmentID, e.Weeks, e.Requested, e.LastTried)
}

func (e *UnschedulableError) Unwrap() error {
	return ErrUnschedulable
}
