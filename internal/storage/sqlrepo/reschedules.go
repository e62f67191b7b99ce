package sqlrepo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

func (r *Repo) AddRescheduleAttempt(a models.RescheduleAttempt) error {
	return r.addRescheduleAttempt(r.db, a)
}

func (r *Repo) addRescheduleAttempt(db execer, a models.RescheduleAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := db.Exec(r.rebind(`
		INSERT INTO reschedule_attempts (id, run_id, appointment_id, from_date, to_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		a.ID.String(), a.RunID.String(), a.AppointmentID,
		a.FromDate.String(), a.ToDate.String(), a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record reschedule of appointment %d: %w", a.AppointmentID, err)
	}
	return nil
}

func (r *Repo) GetRescheduleAttempts(appointmentID int) ([]models.RescheduleAttempt, error) {
	rows, err := r.query(`
		SELECT id, run_id, appointment_id, from_date, to_date, created_at
		FROM reschedule_attempts WHERE appointment_id = ?
		ORDER BY created_at, from_date`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.RescheduleAttempt
	for rows.Next() {
		var (
			a                   models.RescheduleAttempt
			id, runID           string
			from, to, createdAt string
		)
		if err := rows.Scan(&id, &runID, &a.AppointmentID, &from, &to, &createdAt); err != nil {
			return nil, err
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("reschedule attempt id: %w", err)
		}
		if a.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("reschedule run id: %w", err)
		}
		if a.FromDate, err = clock.ParseDate(from); err != nil {
			return nil, err
		}
		if a.ToDate, err = clock.ParseDate(to); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("reschedule created_at: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
