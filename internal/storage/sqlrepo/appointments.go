package sqlrepo

import (
	"fmt"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
	"github.com/julianstephens/clinicsched/internal/storage"
)

const appointmentColumns = "id, doctor_id, patient_id, date, start, real_date, real_start, real_end, was_over"

func (r *Repo) AddAppointment(a models.Appointment) (int, error) {
	id, err := r.insert(`
		INSERT INTO appointments (doctor_id, patient_id, date, start, real_date, real_start, real_end, was_over)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.DoctorID, a.PatientID, a.Date.String(), a.Start.String(),
		a.RealDate.String(), a.RealStart.String(), a.RealEnd.String(), boolInt(a.WasOver))
	if err != nil {
		return 0, fmt.Errorf("failed to add appointment: %w", err)
	}
	return id, nil
}

func (r *Repo) GetAppointment(id int) (models.Appointment, error) {
	row := r.queryRow("SELECT "+appointmentColumns+" FROM appointments WHERE id = ?", id)
	a, err := scanAppointment(row)
	if err != nil {
		return models.Appointment{}, notFound(err, "appointment", id)
	}
	return a, nil
}

// QueryAppointments returns the ids of appointments matching q.
func (r *Repo) QueryAppointments(q storage.Query) ([]int, error) {
	clause, args, err := q.SQL(r.dialect.Placeholder)
	if err != nil {
		return nil, err
	}
	// clause already carries dialect placeholders, so skip rebind.
	rows, err := r.db.Query("SELECT id FROM appointments"+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repo) SetRealDate(id int, d clock.Date) error {
	return r.updateUnfinished(r.db, id, "UPDATE appointments SET real_date = ? WHERE id = ? AND was_over = 0", d.String(), id)
}

func (r *Repo) SetRealStart(id int, t clock.Time) error {
	return r.updateUnfinished(r.db, id, "UPDATE appointments SET real_start = ? WHERE id = ? AND was_over = 0", t.String(), id)
}

func (r *Repo) SetRealEnd(id int, t clock.Time) error {
	return r.updateUnfinished(r.db, id, "UPDATE appointments SET real_end = ? WHERE id = ? AND was_over = 0", t.String(), id)
}

// ApplyRun writes a run's placements and its reschedule audit rows in one
// transaction.
func (r *Repo) ApplyRun(placements []models.Appointment, attempts []models.RescheduleAttempt) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range placements {
		err := r.updateUnfinished(tx, a.ID, `
			UPDATE appointments SET real_date = ?, real_start = ?, real_end = ?
			WHERE id = ? AND was_over = 0`,
			a.RealDate.String(), a.RealStart.String(), a.RealEnd.String(), a.ID)
		if err != nil {
			return err
		}
	}
	for _, a := range attempts {
		if err := r.addRescheduleAttempt(tx, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) MarkFinished(id int) error {
	return r.updateOne("appointment", id, "UPDATE appointments SET was_over = 1 WHERE id = ?", id)
}

// updateUnfinished runs an UPDATE guarded by was_over = 0. When no row
// changes it tells a finished appointment apart from a missing one.
func (r *Repo) updateUnfinished(db execer, id int, query string, args ...any) error {
	res, err := db.Exec(r.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update appointment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update appointment %d: %w", id, err)
	}
	if n > 0 {
		return nil
	}
	var wasOver int
	err = db.QueryRow(r.rebind("SELECT was_over FROM appointments WHERE id = ?"), id).Scan(&wasOver)
	if err != nil {
		return notFound(err, "appointment", id)
	}
	return fmt.Errorf("appointment %d: %w", id, storage.ErrFinished)
}

func scanAppointment(s scanner) (models.Appointment, error) {
	var (
		a                                       models.Appointment
		date, start, realDate, realStart, realE string
		wasOver                                 int
	)
	if err := s.Scan(&a.ID, &a.DoctorID, &a.PatientID, &date, &start, &realDate, &realStart, &realE, &wasOver); err != nil {
		return models.Appointment{}, err
	}

	var err error
	if a.Date, err = clock.ParseDate(date); err != nil {
		return models.Appointment{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	if a.Start, err = clock.ParseTime(start); err != nil {
		return models.Appointment{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	if a.RealDate, err = clock.ParseDate(realDate); err != nil {
		return models.Appointment{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	if a.RealStart, err = clock.ParseTime(realStart); err != nil {
		return models.Appointment{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	if a.RealEnd, err = clock.ParseTime(realE); err != nil {
		return models.Appointment{}, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	a.WasOver = wasOver != 0
	return a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
