package records

import (
	"errors"
	"fmt"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

type ScheduleSetCmd struct {
	Doctor     int    `help:"Doctor ID." required:""`
	Start      string `help:"Start of the working day (HH:MM)." default:"09:00"`
	End        string `help:"End of the working day (HH:MM)." default:"17:00"`
	LunchStart string `help:"Start of the lunch break (HH:MM)." name:"lunch-start"`
	LunchEnd   string `help:"End of the lunch break (HH:MM)." name:"lunch-end"`
	Days       int    `help:"Working days per week, counted from Monday." default:"5"`
}

// Build parses the flags into a schedule.
func (c *ScheduleSetCmd) Build() (models.Schedule, error) {
	var (
		sched models.Schedule
		err   error
	)
	if sched.Start, err = clock.ParseTime(c.Start); err != nil {
		return sched, err
	}
	if sched.End, err = clock.ParseTime(c.End); err != nil {
		return sched, err
	}
	if (c.LunchStart == "") != (c.LunchEnd == "") {
		return sched, errors.New("--lunch-start and --lunch-end must be given together")
	}
	if c.LunchStart != "" {
		sched.Lunch.Valid = true
		if sched.Lunch.Start, err = clock.ParseTime(c.LunchStart); err != nil {
			return sched, err
		}
		if sched.Lunch.End, err = clock.ParseTime(c.LunchEnd); err != nil {
			return sched, err
		}
	}
	sched.DaysInWeek = c.Days
	if err := sched.Validate(); err != nil {
		return sched, err
	}
	return sched, nil
}

func (c *ScheduleSetCmd) Run(ctx *cli.Context) error {
	doctor, err := ctx.Store.GetDoctor(c.Doctor)
	if err != nil {
		return err
	}
	sched, err := c.Build()
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	// Doctors own their schedule row; update it in place when present.
	sched.ID = doctor.ScheduleID
	id, err := ctx.Store.SaveSchedule(sched)
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	if doctor.ScheduleID != id {
		if err := ctx.Store.AssignSchedule(doctor.ID, id); err != nil {
			return fmt.Errorf("failed to assign schedule: %w", err)
		}
	}

	sched.ID = id
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Schedule %d saved for %s", id, doctor.FullName)))
	fmt.Println(renderSchedule(sched))
	return nil
}

type ScheduleShowCmd struct {
	Doctor int `help:"Doctor ID." required:""`
}

func (c *ScheduleShowCmd) Run(ctx *cli.Context) error {
	sched, err := ctx.Store.GetScheduleForDoctor(c.Doctor)
	if err != nil {
		return err
	}
	fmt.Println(renderSchedule(sched))
	return nil
}

func renderSchedule(s models.Schedule) string {
	lunch := "none"
	if s.Lunch.Valid {
		lunch = s.Lunch.Start.Short() + "-" + s.Lunch.End.Short()
	}
	return cli.Table(
		[]string{"Schedule", "Hours", "Lunch", "Days/week"},
		[][]string{{
			fmt.Sprintf("%d", s.ID),
			s.Start.Short() + "-" + s.End.Short(),
			lunch,
			fmt.Sprintf("%d", s.DaysInWeek),
		}},
	)
}
