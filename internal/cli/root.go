package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/clinicsched/internal/backup"
	"github.com/julianstephens/clinicsched/internal/clinic"
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/config"
	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/logger"
	"github.com/julianstephens/clinicsched/internal/storage"
	"github.com/julianstephens/clinicsched/internal/storage/sqlite"
)

type Context struct {
	Store   storage.Provider
	Service *clinic.Service
	Config  *config.Config
}

// Backups returns a backup manager for the SQLite database file.
func (c *Context) Backups() (*backup.Manager, error) {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil, errors.New("backups are only supported for SQLite storage")
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

// Location returns the timezone from settings, falling back to local time.
func (c *Context) Location() *time.Location {
	settings, err := c.Store.GetSettings()
	if err != nil || settings.Timezone == "" || settings.Timezone == constants.DefaultTimezone {
		return time.Local
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		logger.Warn("Invalid timezone in settings, using local time", "timezone", settings.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// ParseDay accepts YYYY-MM-DD, "today" or "tomorrow".
func ParseDay(s string, loc *time.Location) (clock.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return clock.Today(loc), nil
	case "tomorrow":
		return clock.Today(loc).AddDays(1), nil
	}
	d, err := clock.ParseDate(s)
	if err != nil {
		return clock.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD, today or tomorrow", s)
	}
	return d, nil
}

// FormatShift renders a signed number of seconds as e.g. "+20m50s".
func FormatShift(sec int) string {
	if sec == 0 {
		return "0"
	}
	sign := "+"
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	return sign + (time.Duration(sec) * time.Second).String()
}
