package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/constants"
)

type schemaVersioner interface {
	SchemaVersion() (current, latest int, err error)
}

// CheckCmd runs health diagnostics against the configured database.
type CheckCmd struct{}

type checkStatus int

const (
	statusOK checkStatus = iota
	statusWarn
	statusFail
	statusSkipped
)

type check struct {
	name  string
	needs bool // requires a reachable database
	warn  bool // failures are reported as warnings
	run   func(*cli.Context) error
}

func checks() []check {
	return []check{
		{name: "Schema version", needs: true, run: checkSchemaVersion},
		{name: "Backups present", warn: true, run: checkBackupsPresent},
		{name: "Settings", needs: true, run: checkSettings},
		{name: "Doctor schedules", needs: true, run: checkSchedules},
		{name: "Appointment validation", needs: true, warn: true, run: checkAppointments},
		{name: "Clock", run: checkClock},
	}
}

func (cmd *CheckCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	reachable := true
	if err := checkDBReachable(ctx); err != nil {
		report("Database reachable", statusFail, err)
		hasError = true
		reachable = false
	} else {
		report("Database reachable", statusOK, nil)
	}

	for _, c := range checks() {
		if c.needs && !reachable {
			report(c.name, statusSkipped, nil)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			report(c.name, statusOK, nil)
		case c.warn:
			report(c.name, statusWarn, err)
		default:
			report(c.name, statusFail, err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func report(name string, status checkStatus, err error) {
	switch status {
	case statusOK:
		fmt.Printf("✓ %s: OK\n", name)
	case statusWarn:
		fmt.Printf("⚠ %s: WARNING\n", name)
		fmt.Printf("   %v\n", err)
	case statusFail:
		fmt.Printf("❌ %s: FAIL\n", name)
		fmt.Printf("   Error: %v\n", err)
	case statusSkipped:
		fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", name)
	}
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.GetAllDoctors(); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sv, ok := ctx.Store.(schemaVersioner)
	if !ok {
		return nil
	}
	current, latest, err := sv.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'clinicsched migrate')", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(list) == 0 {
		return errors.New("no backups found - consider creating one with 'clinicsched backup create'")
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.PrecisionSec < constants.MinPrecisionSec || settings.PrecisionSec > constants.MaxPrecisionSec {
		return fmt.Errorf("precision %ds is outside %d..%d", settings.PrecisionSec, constants.MinPrecisionSec, constants.MaxPrecisionSec)
	}
	if settings.MaxRescheduleWeeks < 0 || settings.MaxRescheduleWeeks > constants.MaxRescheduleWeeksLimit {
		return fmt.Errorf("max reschedule weeks %d is outside 0..%d", settings.MaxRescheduleWeeks, constants.MaxRescheduleWeeksLimit)
	}
	if settings.Timezone != "" && settings.Timezone != constants.DefaultTimezone {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return fmt.Errorf("unknown timezone %q: %w", settings.Timezone, err)
		}
	}
	return nil
}

func checkSchedules(ctx *cli.Context) error {
	doctors, err := ctx.Store.GetAllDoctors()
	if err != nil {
		return fmt.Errorf("failed to get doctors: %w", err)
	}
	var errs []error
	for _, d := range doctors {
		if d.ScheduleID == 0 {
			continue
		}
		sched, err := ctx.Store.GetScheduleForDoctor(d.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("doctor %d: %w", d.ID, err))
			continue
		}
		if err := sched.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("doctor %d: %w", d.ID, err))
		}
	}
	return errors.Join(errs...)
}

func checkAppointments(ctx *cli.Context) error {
	doctors, err := ctx.Store.GetAllDoctors()
	if err != nil {
		return fmt.Errorf("failed to get doctors: %w", err)
	}
	total := 0
	for _, d := range doctors {
		if d.ScheduleID == 0 {
			continue
		}
		res, err := ctx.Service.Validate(d.ID)
		if err != nil {
			return fmt.Errorf("doctor %d: %w", d.ID, err)
		}
		total += len(res.Conflicts)
	}
	if total > 0 {
		return fmt.Errorf("%d conflict(s) found - run 'clinicsched validate' for details", total)
	}
	return nil
}

func checkClock(_ *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
