package storage

import (
	"errors"
	"fmt"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFinished is returned (wrapped) when a write targets a finished
	// appointment.
	ErrFinished = errors.New("appointment is finished")
)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Migrate(logFn func(string)) (int, error)

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Doctors and patients
	AddDoctor(models.Doctor) (int, error)
	GetDoctor(id int) (models.Doctor, error)
	GetAllDoctors() ([]models.Doctor, error)
	AddPatient(models.Patient) (int, error)
	GetPatient(id int) (models.Patient, error)
	GetAllPatients() ([]models.Patient, error)

	// Schedules
	SaveSchedule(models.Schedule) (int, error)
	GetSchedule(id int) (models.Schedule, error)
	GetScheduleForDoctor(doctorID int) (models.Schedule, error)
	AssignSchedule(doctorID, scheduleID int) error

	// Appointments
	AddAppointment(models.Appointment) (int, error)
	GetAppointment(id int) (models.Appointment, error)
	QueryAppointments(q Query) ([]int, error)
	SetRealDate(id int, d clock.Date) error
	SetRealStart(id int, t clock.Time) error
	SetRealEnd(id int, t clock.Time) error
	MarkFinished(id int) error
	// ApplyRun writes the real placement of every appointment in placements
	// and records attempts in one transaction. A finished or missing
	// appointment aborts the whole batch.
	ApplyRun(placements []models.Appointment, attempts []models.RescheduleAttempt) error

	// Reschedule audit log
	AddRescheduleAttempt(models.RescheduleAttempt) error
	GetRescheduleAttempts(appointmentID int) ([]models.RescheduleAttempt, error)

	// Utils
	GetConfigPath() string
}

// QuestionPlaceholder renders SQLite bind markers.
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder renders PostgreSQL bind markers.
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }
