package records

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/clinic"
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

type AppointmentBookCmd struct {
	Doctor   int    `help:"Doctor ID." required:""`
	Patient  int    `help:"Patient ID." required:""`
	Date     string `help:"Requested date (YYYY-MM-DD, today, tomorrow)." default:"today"`
	Start    string `help:"Requested start (HH:MM)." required:""`
	Duration int    `help:"Length in minutes. Defaults to the doctor's average."`
}

func (c *AppointmentBookCmd) Run(ctx *cli.Context) error {
	date, err := cli.ParseDay(c.Date, ctx.Location())
	if err != nil {
		return err
	}
	start, err := clock.ParseTime(c.Start)
	if err != nil {
		return err
	}

	a, err := ctx.Service.Book(clinic.Booking{
		DoctorID:    c.Doctor,
		PatientID:   c.Patient,
		Date:        date,
		Start:       start,
		DurationMin: c.Duration,
	})
	if err != nil {
		return fmt.Errorf("failed to book appointment: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Booked appointment %d on %s at %s-%s",
		a.ID, a.Date, a.RealStart.Short(), a.RealEnd.Short())))
	return nil
}

type AppointmentListCmd struct {
	Doctor int    `help:"Doctor ID." required:""`
	Date   string `help:"Only show appointments placed on this date."`
}

func (c *AppointmentListCmd) Run(ctx *cli.Context) error {
	var date *clock.Date
	if c.Date != "" {
		d, err := cli.ParseDay(c.Date, ctx.Location())
		if err != nil {
			return err
		}
		date = &d
	}

	appts, err := ctx.Service.Appointments(c.Doctor, date)
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		fmt.Println("No appointments found.")
		return nil
	}
	fmt.Println(cli.Table(
		[]string{"ID", "Patient", "Requested", "Placed", "Span", "Shift", "Status"},
		appointmentRows(appts),
	))
	return nil
}

func appointmentRows(appts []models.Appointment) [][]string {
	rows := make([][]string, 0, len(appts))
	for _, a := range appts {
		status := "pending"
		if a.WasOver {
			status = "finished"
		}
		shift := cli.FormatShift(a.Shift())
		if a.Moved() {
			shift = fmt.Sprintf("moved %+dd", a.Date.DaysUntil(a.RealDate))
		}
		rows = append(rows, []string{
			strconv.Itoa(a.ID),
			strconv.Itoa(a.PatientID),
			a.Date.String() + " " + a.Start.Short(),
			a.RealDate.String(),
			a.RealStart.String() + "-" + a.RealEnd.String(),
			shift,
			status,
		})
	}
	return rows
}

type AppointmentFinishCmd struct {
	ID int `arg:"" help:"Appointment ID."`
}

func (c *AppointmentFinishCmd) Run(ctx *cli.Context) error {
	if err := ctx.Service.Finish(c.ID); err != nil {
		return fmt.Errorf("failed to finish appointment: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Appointment %d marked as finished", c.ID)))
	return nil
}

type HistoryCmd struct {
	Appointment int `help:"Appointment ID." required:""`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	attempts, err := ctx.Service.History(c.Appointment)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Printf("Appointment %d has never been rescheduled.\n", c.Appointment)
		return nil
	}

	loc := ctx.Location()
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, []string{
			a.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
			a.FromDate.String(),
			a.ToDate.String(),
			a.RunID.String(),
		})
	}
	fmt.Println(cli.Table([]string{"When", "From", "To", "Run"}, rows))
	return nil
}
