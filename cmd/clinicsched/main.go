package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/clinicsched/internal/backup"
	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/cli/backups"
	"github.com/julianstephens/clinicsched/internal/cli/optimize"
	"github.com/julianstephens/clinicsched/internal/cli/records"
	"github.com/julianstephens/clinicsched/internal/cli/system"
	"github.com/julianstephens/clinicsched/internal/clinic"
	"github.com/julianstephens/clinicsched/internal/config"
	"github.com/julianstephens/clinicsched/internal/constants"
	apperrors "github.com/julianstephens/clinicsched/internal/errors"
	"github.com/julianstephens/clinicsched/internal/keyring"
	"github.com/julianstephens/clinicsched/internal/lock"
	"github.com/julianstephens/clinicsched/internal/logger"
	"github.com/julianstephens/clinicsched/internal/storage"
	"github.com/julianstephens/clinicsched/internal/storage/postgres"
	"github.com/julianstephens/clinicsched/internal/storage/sqlite"
)

type CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Path to a YAML config file. Defaults to ~/.config/clinicsched/config.yaml when present." type:"path"`
	DB      string `help:"SQLite file, PostgreSQL connection string, or 'keyring'. PostgreSQL credentials must NOT be embedded; use .pgpass, PG* environment variables or the OS keyring."`
	Debug   bool   `help:"Mirror logs to stderr at debug level."`

	Init     system.InitCmd       `cmd:"" help:"Initialize clinicsched storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Check    system.CheckCmd      `cmd:"" help:"Run health checks and diagnostics."`
	Serve    system.ServeCmd      `cmd:"" help:"Serve the HTTP API."`
	Optimize optimize.OptimizeCmd `cmd:"" help:"Rebalance appointments into each doctor's working window."`
	Validate system.ValidateCmd   `cmd:"" help:"Report conflicts in stored appointments."`
	History  records.HistoryCmd   `cmd:"" help:"Show the reschedule history of an appointment."`
	Doctor   struct {
		Add  records.DoctorAddCmd  `cmd:"" help:"Add a doctor."`
		List records.DoctorListCmd `cmd:"" help:"List doctors." default:"1"`
	} `cmd:"" help:"Manage doctors."`
	Patient struct {
		Add  records.PatientAddCmd  `cmd:"" help:"Add a patient."`
		List records.PatientListCmd `cmd:"" help:"List patients." default:"1"`
	} `cmd:"" help:"Manage patients."`
	Schedule struct {
		Set  records.ScheduleSetCmd  `cmd:"" help:"Set a doctor's working schedule."`
		Show records.ScheduleShowCmd `cmd:"" help:"Show a doctor's working schedule."`
	} `cmd:"" help:"Manage working schedules."`
	Appointment struct {
		Book   records.AppointmentBookCmd   `cmd:"" help:"Book an appointment."`
		List   records.AppointmentListCmd   `cmd:"" help:"List a doctor's appointments."`
		Finish records.AppointmentFinishCmd `cmd:"" help:"Mark an appointment as finished."`
	} `cmd:"" help:"Manage appointments."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
	Settings system.SettingsCmd `cmd:"" help:"Manage optimizer settings."`
}

func newParser(c *CLI) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name(constants.AppName),
		kong.Description("Doctor appointment optimizer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
}

// skipsLoad lists commands that open the database themselves.
var skipsLoad = map[string]bool{
	"init":    true,
	"migrate": true,
	"check":   true,
	"keyring": true,
}

func main() {
	var c CLI
	parser, err := newParser(&c)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
	applyFlags(cfg, &c)

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.Dir(), Server: topLevel(ctx) == "serve"}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{Config: cfg}
	if topLevel(ctx) != "keyring" {
		store, err := openStore(cfg)
		if err != nil {
			apperrors.Fatal(err)
		}
		defer store.Close()

		if !skipsLoad[topLevel(ctx)] {
			if err := store.Load(); err != nil {
				apperrors.Fatal(err)
			}
		}

		svcCfg := clinic.Config{
			Locks:       lock.NewManager(filepath.Join(cfg.Dir(), constants.LockDirName)),
			Concurrency: cfg.Concurrency,
			RunTimeout:  cfg.RunTimeout,
		}
		if _, ok := store.(*sqlite.Store); ok {
			svcCfg.Backups = backup.NewManager(store.GetConfigPath())
		}
		appCtx.Store = store
		appCtx.Service = clinic.New(store, svcCfg)
	}

	logger.Debug("Running command", "command", ctx.Command())
	if err := ctx.Run(appCtx); err != nil {
		apperrors.Fatal(err)
	}
}

// applyFlags lets command-line flags override the loaded configuration.
func applyFlags(cfg *config.Config, c *CLI) {
	if c.DB != "" {
		cfg.DB = config.ExpandHome(c.DB)
	}
	if c.Debug {
		cfg.Debug = true
	}
}

// openStore picks the storage backend for cfg.DB.
func openStore(cfg *config.Config) (storage.Provider, error) {
	db, err := keyring.Resolve(cfg.DB, cfg.Profile)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w; run 'clinicsched keyring set' first", err)
		}
		return nil, err
	}

	if !postgres.IsConnString(db) {
		return sqlite.NewStore(db), nil
	}
	_, err = postgres.ValidateConnString(db)
	switch {
	case err == nil:
	case errors.Is(err, postgres.ErrEmbeddedCredentials) && cfg.DB == keyring.KeyringDB:
		// passwords are allowed when they come from the keyring
	case errors.Is(err, postgres.ErrEmbeddedCredentials):
		return nil, errors.New("PostgreSQL connection strings with embedded credentials are not allowed; use .pgpass, PG* environment variables or 'clinicsched keyring set'")
	default:
		return nil, err
	}
	return postgres.New(db), nil
}

func topLevel(ctx *kong.Context) string {
	for _, p := range ctx.Path {
		if p.Command != nil {
			return p.Command.Name
		}
	}
	return ""
}
