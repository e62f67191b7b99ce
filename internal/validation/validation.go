package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
	"github.com/julianstephens/clinicsched/internal/optimizer"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictOverlappingAppointments ConflictType = "overlapping_appointments"
	ConflictOutsideWorkingWindow    ConflictType = "outside_working_window"
	ConflictBeforeFinished          ConflictType = "before_finished"
	ConflictNonWorkday              ConflictType = "non_workday"
	ConflictInvalidSpan             ConflictType = "invalid_span"
	ConflictOvercommitted           ConflictType = "overcommitted"
	ConflictMalformedSchedule       ConflictType = "malformed_schedule"
)

// Conflict represents a detected problem in a doctor's stored appointments
type Conflict struct {
	Type           ConflictType `json:"type"`
	Description    string       `json:"description"`
	Date           string       `json:"date,omitempty"`
	TimeRange      string       `json:"time_range,omitempty"`
	AppointmentIDs []int        `json:"appointment_ids,omitempty"`
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict `json:"conflicts"`
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

func (vr *ValidationResult) add(c Conflict) {
	vr.Conflicts = append(vr.Conflicts, c)
}

// Validator checks stored appointments against a doctor's schedule.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateAppointments groups appointments by real date and reports overlaps,
// placements outside the working window, unfinished appointments that start
// before the last finished one ends, and days that cannot hold their load.
// Finished appointments only take part in the overlap check.
func (v *Validator) ValidateAppointments(appts []models.Appointment, sched models.Schedule) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	if err := sched.Validate(); err != nil {
		result.add(Conflict{
			Type:        ConflictMalformedSchedule,
			Description: fmt.Sprintf("Schedule %d is malformed: %v", sched.ID, err),
		})
		return result
	}

	byDate := make(map[clock.Date][]models.Appointment)
	for _, a := range appts {
		byDate[a.RealDate] = append(byDate[a.RealDate], a)
	}
	dates := make([]clock.Date, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, d := range dates {
		v.validateDay(&result, d, byDate[d], sched)
	}
	return result
}

func (v *Validator) validateDay(result *ValidationResult, date clock.Date, appts []models.Appointment, sched models.Schedule) {
	sort.Slice(appts, func(i, j int) bool {
		if c := appts[i].RealStart.Compare(appts[j].RealStart); c != 0 {
			return c < 0
		}
		return appts[i].ID < appts[j].ID
	})

	var finished, unfinished []models.Appointment
	for _, a := range appts {
		if a.RealEnd.Before(a.RealStart) {
			result.add(Conflict{
				Type:           ConflictInvalidSpan,
				Description:    fmt.Sprintf("Appointment %d ends (%s) before it starts (%s)", a.ID, a.RealEnd, a.RealStart),
				Date:           date.String(),
				AppointmentIDs: []int{a.ID},
			})
			continue
		}
		if a.WasOver {
			finished = append(finished, a)
		} else {
			unfinished = append(unfinished, a)
		}
	}
	valid := append(append([]models.Appointment{}, finished...), unfinished...)

	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			a, b := valid[i], valid[j]
			if optimizer.NotIntersected(span(a), span(b)) {
				continue
			}
			lo, hi := a, b
			if hi.ID < lo.ID {
				lo, hi = hi, lo
			}
			result.add(Conflict{
				Type: ConflictOverlappingAppointments,
				Description: fmt.Sprintf("Appointments %d (%s-%s) and %d (%s-%s) overlap on %s",
					lo.ID, lo.RealStart.Short(), lo.RealEnd.Short(),
					hi.ID, hi.RealStart.Short(), hi.RealEnd.Short(), date),
				Date:           date.String(),
				TimeRange:      fmt.Sprintf("%s-%s", clock.Max(a.RealStart, b.RealStart).Short(), minTime(a.RealEnd, b.RealEnd).Short()),
				AppointmentIDs: []int{lo.ID, hi.ID},
			})
		}
	}

	if len(unfinished) == 0 {
		return
	}

	if date.WeekdayIndex() >= sched.DaysInWeek {
		result.add(Conflict{
			Type:           ConflictNonWorkday,
			Description:    fmt.Sprintf("%d appointment(s) placed on %s, which is not a working day", len(unfinished), date),
			Date:           date.String(),
			AppointmentIDs: ids(unfinished),
		})
	}

	floor := optimizer.Floor(finished)
	var load int
	for _, a := range unfinished {
		load += a.Duration()
		timeRange := fmt.Sprintf("%s-%s", a.RealStart.Short(), a.RealEnd.Short())
		if !optimizer.CheckTimeBase(a.RealStart, sched) || !optimizer.CheckTimeBase(a.RealEnd, sched) {
			result.add(Conflict{
				Type:           ConflictOutsideWorkingWindow,
				Description:    fmt.Sprintf("Appointment %d (%s) on %s is outside the working window", a.ID, timeRange, date),
				Date:           date.String(),
				TimeRange:      timeRange,
				AppointmentIDs: []int{a.ID},
			})
			continue
		}
		if len(finished) > 0 && !a.RealStart.After(floor) {
			result.add(Conflict{
				Type:           ConflictBeforeFinished,
				Description:    fmt.Sprintf("Appointment %d (%s) on %s starts before finished appointments end at %s", a.ID, timeRange, date, floor.Short()),
				Date:           date.String(),
				TimeRange:      timeRange,
				AppointmentIDs: []int{a.ID},
			})
		}
	}

	if load > sched.WorkSeconds() {
		result.add(Conflict{
			Type: ConflictOvercommitted,
			Description: fmt.Sprintf("Overcommitted on %s: %d min of appointments, %d min of working time",
				date, load/60, sched.WorkSeconds()/60),
			Date:           date.String(),
			AppointmentIDs: ids(unfinished),
		})
	}
}

func span(a models.Appointment) optimizer.Span {
	return optimizer.Span{Start: a.RealStart, End: a.RealEnd}
}

func minTime(a, b clock.Time) clock.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func ids(appts []models.Appointment) []int {
	out := make([]int, len(appts))
	for i, a := range appts {
		out[i] = a.ID
	}
	sort.Ints(out)
	return out
}
