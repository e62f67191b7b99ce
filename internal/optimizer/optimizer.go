// Package optimizer reshuffles a doctor's appointments into non-overlapping
// spans inside the working window, moving whatever does not fit to a later
// workday.
package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/logger"
	"github.com/julianstephens/clinicsched/internal/models"
)

// Options tunes a run. Zero values fall back to the package defaults.
type Options struct {
	// Precision is the step of the shift grid in seconds.
	Precision int
	// MaxRescheduleWeeks bounds how far past its requested date an
	// appointment may be pushed before the run fails.
	MaxRescheduleWeeks int
}

type Optimizer struct {
	opts Options
}

func New(opts Options) *Optimizer {
	if opts.Precision <= 0 {
		opts.Precision = constants.DefaultPrecisionSec
	}
	if opts.MaxRescheduleWeeks <= 0 {
		opts.MaxRescheduleWeeks = constants.DefaultMaxRescheduleWeeks
	}
	return &Optimizer{opts: opts}
}

// Options returns the effective options after defaults were applied.
func (o *Optimizer) Options() Options {
	return o.opts
}

// Assignment is a span committed for an appointment on a date.
type Assignment struct {
	AppointmentID int        `json:"appointment_id"`
	Date          clock.Date `json:"date"`
	Span          Span       `json:"span"`
	Shift         int        `json:"shift_sec"`
}

// Move records an appointment pushed from one day to the next workday.
type Move struct {
	AppointmentID int        `json:"appointment_id"`
	From          clock.Date `json:"from"`
	To            clock.Date `json:"to"`
}

// Report summarises a run.
type Report struct {
	RunID       uuid.UUID    `json:"run_id"`
	Assignments []Assignment `json:"assignments"`
	Moves       []Move       `json:"moves"`
	Cost        int64        `json:"cost"`
	Dates       []clock.Date `json:"dates"`
}

// Optimize rebalances every unfinished appointment visible through view.
// Dates are processed in ascending order. When a day has no feasible
// assignment its highest-id unfinished appointment moves to the next workday
// and the day is retried. Finished appointments are never written.
// Cancelling ctx stops the run with an error matching ErrCanceled; whatever
// was already written to view stays there, so callers stage the run.
func (o *Optimizer) Optimize(ctx context.Context, view AppointmentView, sched models.Schedule) (Report, error) {
	report := Report{RunID: uuid.New()}
	log := logger.With("run", report.RunID.String())

	if err := sched.Validate(); err != nil {
		return report, fmt.Errorf("%w: %v", ErrMalformedSchedule, err)
	}

	dates, err := o.resetDates(view)
	if err != nil {
		return report, err
	}

	for i := 0; i < len(dates); {
		date := dates[i]
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w on %s: %w", ErrCanceled, date, err)
		}

		finished, err := load(view, &date, false)
		if err != nil {
			return report, err
		}
		unfinished, err := load(view, &date, true)
		if err != nil {
			return report, err
		}
		if len(unfinished) == 0 {
			i++
			continue
		}
		if len(unfinished) > constants.MaxPendingPerDay {
			return report, fmt.Errorf("%w: %d on %s, limit is %d",
				ErrTooManyPending, len(unfinished), date, constants.MaxPendingPerDay)
		}

		floor := Floor(finished)
		pending := make([]Pending, len(unfinished))
		for j, a := range unfinished {
			if a.Duration() < 0 {
				return report, fmt.Errorf("appointment %d ends before it starts (%s-%s)", a.ID, a.RealStart, a.RealEnd)
			}
			pending[j] = Pending{ID: a.ID, Preferred: a.Start, Duration: a.Duration()}
		}

		if log != nil {
			log.Debug("searching", "date", date, "pending", len(pending), "finished", len(finished), "floor", floor)
		}

		var (
			res Result
			ok  bool
		)
		if fits(pending, sched, floor) {
			res, ok, err = Search(ctx, pending, Weights(len(pending)), sched, floor, o.opts.Precision)
			if err != nil {
				if log != nil {
					log.Warn("search aborted", "date", date, "pending", len(pending), "err", err)
				}
				return report, err
			}
		}

		if !ok {
			last := unfinished[len(unfinished)-1]
			next := NextWorkday(date, sched.DaysInWeek)
			if next.After(last.Date.AddDays(7 * o.opts.MaxRescheduleWeeks)) {
				return report, &UnschedulableError{
					AppointmentID: last.ID,
					Weeks:         o.opts.MaxRescheduleWeeks,
					Requested:     last.Date,
					LastTried:     date,
				}
			}
			if err := view.SetRealDate(last.ID, next); err != nil {
				return report, fmt.Errorf("failed to move appointment %d: %w", last.ID, err)
			}
			if log != nil {
				log.Debug("day infeasible, moving appointment", "date", date, "appointment", last.ID, "to", next)
			}
			report.Moves = append(report.Moves, Move{AppointmentID: last.ID, From: date, To: next})
			dates = insertDate(dates, next)
			continue
		}

		for j, span := range res.Spans {
			id := pending[j].ID
			if err := view.SetRealStart(id, span.Start); err != nil {
				return report, fmt.Errorf("failed to set start of appointment %d: %w", id, err)
			}
			if err := view.SetRealEnd(id, span.End); err != nil {
				return report, fmt.Errorf("failed to set end of appointment %d: %w", id, err)
			}
			report.Assignments = append(report.Assignments, Assignment{
				AppointmentID: id,
				Date:          date,
				Span:          span,
				Shift:         span.Start.Sub(pending[j].Preferred),
			})
		}
		report.Cost += res.Cost
		i++
	}

	report.Dates = dates
	if log != nil {
		log.Info("optimization finished", "assigned", len(report.Assignments), "moved", len(report.Moves), "cost", report.Cost)
	}
	return report, nil
}

// resetDates puts every unfinished appointment back on its requested date and
// returns the distinct dates, ascending.
func (o *Optimizer) resetDates(view AppointmentView) ([]clock.Date, error) {
	unfinished, err := load(view, nil, true)
	if err != nil {
		return nil, err
	}
	var dates []clock.Date
	for _, a := range unfinished {
		if a.RealDate != a.Date {
			if err := view.SetRealDate(a.ID, a.Date); err != nil {
				return nil, fmt.Errorf("failed to reset date of appointment %d: %w", a.ID, err)
			}
		}
		dates = insertDate(dates, a.Date)
	}
	return dates, nil
}

func load(view AppointmentView, date *clock.Date, unfinished bool) ([]models.Appointment, error) {
	ids, err := AppointmentIDs(view, date, unfinished)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	out := make([]models.Appointment, 0, len(ids))
	for _, id := range ids {
		a, err := view.Appointment(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load appointment %d: %w", id, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// NextWorkday returns the day after d, or the following Monday when d is the
// last working day of a week of daysInWeek working days (or later).
func NextWorkday(d clock.Date, daysInWeek int) clock.Date {
	idx := d.WeekdayIndex()
	if idx >= daysInWeek-1 {
		return d.AddDays(7 - idx)
	}
	return d.AddDays(1)
}

// insertDate adds d to the sorted slice unless already present.
func insertDate(dates []clock.Date, d clock.Date) []clock.Date {
	i := sort.Search(len(dates), func(i int) bool { return !dates[i].Before(d) })
	if i < len(dates) && dates[i] == d {
		return dates
	}
	dates = append(dates, clock.Date{})
	copy(dates[i+1:], dates[i:])
	dates[i] = d
	return dates
}
