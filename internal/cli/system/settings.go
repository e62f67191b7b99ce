package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Precision *int    `help:"Step of the start-time search, in seconds."`
	MaxWeeks  *int    `name:"max-weeks" help:"How many weeks an appointment may be pushed before the run fails."`
	Timezone  *string `help:"IANA timezone used for 'today', or Local."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List || (c.Precision == nil && c.MaxWeeks == nil && c.Timezone == nil) {
		printSettings(settings)
		return nil
	}

	if c.Precision != nil {
		if *c.Precision < constants.MinPrecisionSec || *c.Precision > constants.MaxPrecisionSec {
			return fmt.Errorf("precision must be between %d and %d seconds", constants.MinPrecisionSec, constants.MaxPrecisionSec)
		}
		settings.PrecisionSec = *c.Precision
	}
	if c.MaxWeeks != nil {
		if *c.MaxWeeks < 1 || *c.MaxWeeks > constants.MaxRescheduleWeeksLimit {
			return fmt.Errorf("max weeks must be between 1 and %d", constants.MaxRescheduleWeeksLimit)
		}
		settings.MaxRescheduleWeeks = *c.MaxWeeks
	}
	if c.Timezone != nil {
		if *c.Timezone != constants.DefaultTimezone {
			if _, err := time.LoadLocation(*c.Timezone); err != nil {
				return fmt.Errorf("unknown timezone %q: %w", *c.Timezone, err)
			}
		}
		settings.Timezone = *c.Timezone
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println(cli.SuccessStyle.Render("✓ Settings updated"))
	return nil
}

func printSettings(s models.Settings) {
	fmt.Println("Current Settings:")
	fmt.Printf("  Precision:          %ds\n", s.PrecisionSec)
	fmt.Printf("  Max Reschedule:     %d week(s)\n", s.MaxRescheduleWeeks)
	fmt.Printf("  Timezone:           %s\n", s.Timezone)
}
