package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/models"
)

type DoctorAddCmd struct {
	Name     string `arg:"" help:"Doctor's full name."`
	AvgMin   int    `help:"Average appointment length in minutes." default:"20" name:"avg-min"`
	Schedule int    `help:"Existing schedule ID to assign."`
}

func (c *DoctorAddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("doctor name cannot be empty")
	}
	if c.AvgMin <= 0 {
		return fmt.Errorf("average appointment length must be positive, got %d", c.AvgMin)
	}
	if c.Schedule != 0 {
		if _, err := ctx.Store.GetSchedule(c.Schedule); err != nil {
			return err
		}
	}

	id, err := ctx.Store.AddDoctor(models.Doctor{
		FullName:              name,
		AverageAppointmentMin: c.AvgMin,
		ScheduleID:            c.Schedule,
	})
	if err != nil {
		return fmt.Errorf("failed to add doctor: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Added doctor %d: %s", id, name)))
	if c.Schedule == 0 {
		fmt.Printf("  Set working hours with: %s schedule set --doctor %d\n", constants.AppName, id)
	}
	return nil
}

type DoctorListCmd struct{}

func (c *DoctorListCmd) Run(ctx *cli.Context) error {
	doctors, err := ctx.Store.GetAllDoctors()
	if err != nil {
		return fmt.Errorf("failed to list doctors: %w", err)
	}
	if len(doctors) == 0 {
		fmt.Println("No doctors found.")
		return nil
	}

	rows := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		sched := "-"
		if d.ScheduleID != 0 {
			sched = strconv.Itoa(d.ScheduleID)
		}
		rows = append(rows, []string{
			strconv.Itoa(d.ID),
			d.FullName,
			fmt.Sprintf("%d min", d.AverageAppointmentMin),
			sched,
		})
	}
	fmt.Println(cli.Table([]string{"ID", "Name", "Avg", "Schedule"}, rows))
	return nil
}

type PatientAddCmd struct {
	Name  string `arg:"" help:"Patient's full name."`
	Email string `help:"Contact email."`
}

func (c *PatientAddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("patient name cannot be empty")
	}
	id, err := ctx.Store.AddPatient(models.Patient{FullName: name, Email: strings.TrimSpace(c.Email)})
	if err != nil {
		return fmt.Errorf("failed to add patient: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Added patient %d: %s", id, name)))
	return nil
}

type PatientListCmd struct{}

func (c *PatientListCmd) Run(ctx *cli.Context) error {
	patients, err := ctx.Store.GetAllPatients()
	if err != nil {
		return fmt.Errorf("failed to list patients: %w", err)
	}
	if len(patients) == 0 {
		fmt.Println("No patients found.")
		return nil
	}

	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []string{strconv.Itoa(p.ID), p.FullName, p.Email})
	}
	fmt.Println(cli.Table([]string{"ID", "Name", "Email"}, rows))
	return nil
}
