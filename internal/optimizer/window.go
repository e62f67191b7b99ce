package optimizer

import (
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

// CheckTimeBase reports whether t is a legal time point inside the doctor's
// working window. With a lunch break set, [Lunch.Start, Lunch.End] is excluded.
func CheckTimeBase(t clock.Time, sched models.Schedule) bool {
	if t.Before(sched.Start) {
		return false
	}
	if !sched.Lunch.Valid {
		return !t.After(sched.End)
	}
	if t.Before(sched.Lunch.Start) {
		return true
	}
	if !t.After(sched.Lunch.End) {
		return false
	}
	return !t.After(sched.End)
}

// CheckTime is CheckTimeBase plus the finished-appointment floor: t must be
// strictly later than floor.
func CheckTime(t clock.Time, sched models.Schedule, floor clock.Time) bool {
	return CheckTimeBase(t, sched) && t.After(floor)
}

// Floor returns the latest real end among finished appointments, or midnight
// when there are none.
func Floor(finished []models.Appointment) clock.Time {
	var floor clock.Time
	for _, a := range finished {
		floor = clock.Max(floor, a.RealEnd)
	}
	return floor
}
