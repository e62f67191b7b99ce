// Package clinic runs optimizer passes against the record store and keeps
// the bookkeeping around them: per-doctor locks, pre-run backups and the
// reschedule audit log.
package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/clinicsched/internal/backup"
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/lock"
	"github.com/julianstephens/clinicsched/internal/logger"
	"github.com/julianstephens/clinicsched/internal/models"
	"github.com/julianstephens/clinicsched/internal/optimizer"
	"github.com/julianstephens/clinicsched/internal/storage"
	"github.com/julianstephens/clinicsched/internal/validation"
)

var (
	// ErrNoSchedule is returned for doctors without an assigned schedule.
	ErrNoSchedule = errors.New("doctor has no schedule")
	// ErrInvalidOptions is returned when run options fall outside the allowed bounds.
	ErrInvalidOptions = errors.New("invalid run options")
)

type Config struct {
	// Locks serialises runs per doctor. Required.
	Locks *lock.Manager
	// Backups, when set, snapshots the database before a run writes to it.
	Backups *backup.Manager
	// Concurrency bounds OptimizeAll. Defaults to constants.DefaultConcurrency.
	Concurrency int
	// RunTimeout bounds the search of a run whose context has no deadline.
	// Defaults to constants.DefaultRunTimeout; negative disables it.
	RunTimeout time.Duration
}

type Service struct {
	store       storage.Provider
	locks       *lock.Manager
	backups     *backup.Manager
	concurrency int
	runTimeout  time.Duration
	now         func() time.Time
}

func New(store storage.Provider, cfg Config) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = constants.DefaultConcurrency
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = constants.DefaultRunTimeout
	}
	return &Service{
		store:       store,
		locks:       cfg.Locks,
		backups:     cfg.Backups,
		concurrency: cfg.Concurrency,
		runTimeout:  cfg.RunTimeout,
		now:         time.Now,
	}
}

func (s *Service) Store() storage.Provider {
	return s.store
}

// RunOptions overrides the persisted settings for one run.
type RunOptions struct {
	DryRun    bool
	Precision int
	MaxWeeks  int
	// Confirm, when set, is shown a run's staged changes while the doctor
	// lock is still held. Only an approved run is written.
	Confirm func(Result) (bool, error)
}

// Result is the outcome of one doctor's run.
type Result struct {
	DoctorID int              `json:"doctor_id"`
	Report   optimizer.Report `json:"report"`
	Changes  []storage.Change `json:"changes"`
	Applied  bool             `json:"applied"`
	Err      error            `json:"-"`
}

// Optimize rebalances one doctor's appointments. Writes are staged and only
// reach the store when the whole run succeeds and DryRun is unset.
func (s *Service) Optimize(ctx context.Context, doctorID int, opts RunOptions) (Result, error) {
	result := Result{DoctorID: doctorID}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	sched, err := s.schedule(doctorID)
	if err != nil {
		return result, err
	}
	optOpts, err := s.options(opts)
	if err != nil {
		return result, err
	}

	release, err := s.locks.Acquire(doctorID)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("Failed to release doctor lock", "doctor", doctorID, "error", err)
		}
	}()

	staged := storage.NewStagedView(storage.NewDoctorView(s.store, doctorID))
	report, err := s.search(ctx, staged, sched, optOpts)
	result.Report = report
	if err != nil {
		staged.Discard()
		return result, fmt.Errorf("doctor %d: %w", doctorID, err)
	}

	result.Changes, err = staged.Changes()
	if err != nil {
		staged.Discard()
		return result, err
	}
	if opts.DryRun || len(result.Changes) == 0 {
		staged.Discard()
		return result, nil
	}
	if opts.Confirm != nil {
		apply, err := opts.Confirm(result)
		if err != nil || !apply {
			staged.Discard()
			return result, err
		}
	}

	attempts := make([]models.RescheduleAttempt, len(report.Moves))
	for i, mv := range report.Moves {
		attempts[i] = models.RescheduleAttempt{
			ID:            uuid.New(),
			RunID:         report.RunID,
			AppointmentID: mv.AppointmentID,
			FromDate:      mv.From,
			ToDate:        mv.To,
			CreatedAt:     s.now().UTC(),
		}
	}

	if s.backups != nil {
		if _, err := s.backups.Create("pre-optimize"); err != nil {
			logger.Warn("Automatic backup failed", "error", err)
		}
	}
	if err := staged.Commit(attempts...); err != nil {
		staged.Discard()
		return result, fmt.Errorf("failed to apply run %s: %w", report.RunID, err)
	}
	result.Applied = true

	logger.Info("Optimization applied",
		"doctor", doctorID,
		"run", report.RunID.String(),
		"changed", len(result.Changes),
		"moved", len(report.Moves),
		"cost", report.Cost,
	)
	return result, nil
}

// search runs the optimizer over view, bounded by the service's run timeout
// when ctx has no deadline of its own.
func (s *Service) search(ctx context.Context, view optimizer.AppointmentView, sched models.Schedule, opts optimizer.Options) (optimizer.Report, error) {
	if _, ok := ctx.Deadline(); !ok && s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	return optimizer.New(opts).Optimize(ctx, view, sched)
}

// OptimizeAll runs Optimize for every doctor with a schedule, at most
// Concurrency at a time, or one at a time when opts.Confirm is set.
// Per-doctor failures are reported in Result.Err and joined into the
// returned error.
func (s *Service) OptimizeAll(ctx context.Context, opts RunOptions) ([]Result, error) {
	doctors, err := s.store.GetAllDoctors()
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	var scheduled []models.Doctor
	for _, d := range doctors {
		if d.ScheduleID == 0 {
			logger.Debug("Skipping doctor without schedule", "doctor", d.ID)
			continue
		}
		scheduled = append(scheduled, d)
	}

	results := make([]Result, len(scheduled))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Confirm != nil {
		g.SetLimit(1)
	} else {
		g.SetLimit(s.concurrency)
	}
	for i, d := range scheduled {
		g.Go(func() error {
			res, err := s.Optimize(gctx, d.ID, opts)
			res.Err = err
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

// Validate reports conflicts in a doctor's stored appointments.
func (s *Service) Validate(doctorID int) (validation.ValidationResult, error) {
	sched, err := s.schedule(doctorID)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	appts, err := s.Appointments(doctorID, nil)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	return validation.New().ValidateAppointments(appts, sched), nil
}

// Appointments lists a doctor's appointments ordered by real date and start,
// optionally restricted to one real date.
func (s *Service) Appointments(doctorID int, date *clock.Date) ([]models.Appointment, error) {
	if _, err := s.store.GetDoctor(doctorID); err != nil {
		return nil, err
	}
	q := storage.Query{}.
		SortBy(storage.FieldRealDate, false).
		SortBy(storage.FieldRealStart, false)
	if date != nil {
		q = q.Where(storage.EqualDate(storage.FieldRealDate, *date))
	}

	view := storage.NewDoctorView(s.store, doctorID)
	ids, err := view.Query(q)
	if err != nil {
		return nil, err
	}
	appts := make([]models.Appointment, 0, len(ids))
	for _, id := range ids {
		a, err := view.Appointment(id)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, nil
}

// Booking is a request for a new appointment.
type Booking struct {
	DoctorID  int
	PatientID int
	Date      clock.Date
	Start     clock.Time
	// DurationMin falls back to the doctor's average appointment length.
	DurationMin int
}

// Book stores a new appointment with its real placement equal to the request.
func (s *Service) Book(b Booking) (models.Appointment, error) {
	doctor, err := s.store.GetDoctor(b.DoctorID)
	if err != nil {
		return models.Appointment{}, err
	}
	if _, err := s.store.GetPatient(b.PatientID); err != nil {
		return models.Appointment{}, err
	}

	minutes := b.DurationMin
	if minutes == 0 {
		minutes = doctor.AverageAppointmentMin
	}
	if minutes == 0 {
		minutes = constants.DefaultAverageAppointmentMin
	}
	if minutes < 0 {
		return models.Appointment{}, fmt.Errorf("duration must be positive, got %d", minutes)
	}
	end, ok := b.Start.Add(minutes * 60)
	if !ok {
		return models.Appointment{}, fmt.Errorf("appointment starting at %s with %d min runs past midnight", b.Start, minutes)
	}

	a := models.Appointment{
		DoctorID:  b.DoctorID,
		PatientID: b.PatientID,
		Date:      b.Date,
		Start:     b.Start,
		RealDate:  b.Date,
		RealStart: b.Start,
		RealEnd:   end,
	}
	id, err := s.store.AddAppointment(a)
	if err != nil {
		return models.Appointment{}, err
	}
	a.ID = id
	logger.Info("Appointment booked", "id", id, "doctor", b.DoctorID, "date", b.Date, "start", b.Start)
	return a, nil
}

// Finish marks an appointment as held. It takes the doctor lock, so it fails
// with lock.ErrLocked while a run for the same doctor is in progress.
func (s *Service) Finish(appointmentID int) error {
	a, err := s.store.GetAppointment(appointmentID)
	if err != nil {
		return err
	}
	release, err := s.locks.Acquire(a.DoctorID)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("Failed to release doctor lock", "doctor", a.DoctorID, "error", err)
		}
	}()
	return s.store.MarkFinished(appointmentID)
}

func (s *Service) History(appointmentID int) ([]models.RescheduleAttempt, error) {
	if _, err := s.store.GetAppointment(appointmentID); err != nil {
		return nil, err
	}
	return s.store.GetRescheduleAttempts(appointmentID)
}

func (s *Service) schedule(doctorID int) (models.Schedule, error) {
	doctor, err := s.store.GetDoctor(doctorID)
	if err != nil {
		return models.Schedule{}, err
	}
	if doctor.ScheduleID == 0 {
		return models.Schedule{}, fmt.Errorf("doctor %d: %w", doctorID, ErrNoSchedule)
	}
	return s.store.GetScheduleForDoctor(doctorID)
}

func (s *Service) options(opts RunOptions) (optimizer.Options, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return optimizer.Options{}, fmt.Errorf("failed to load settings: %w", err)
	}
	out := optimizer.Options{
		Precision:          settings.PrecisionSec,
		MaxRescheduleWeeks: settings.MaxRescheduleWeeks,
	}
	if opts.Precision > 0 {
		out.Precision = opts.Precision
	}
	if opts.MaxWeeks > 0 {
		out.MaxRescheduleWeeks = opts.MaxWeeks
	}
	if out.Precision < constants.MinPrecisionSec || out.Precision > constants.MaxPrecisionSec {
		return optimizer.Options{}, fmt.Errorf("%w: precision must be between %d and %d seconds, got %d",
			ErrInvalidOptions, constants.MinPrecisionSec, constants.MaxPrecisionSec, out.Precision)
	}
	if out.MaxRescheduleWeeks > constants.MaxRescheduleWeeksLimit {
		return optimizer.Options{}, fmt.Errorf("%w: max reschedule weeks must be at most %d, got %d",
			ErrInvalidOptions, constants.MaxRescheduleWeeksLimit, out.MaxRescheduleWeeks)
	}
	return out, nil
}
