package sqlrepo

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/clinicsched/internal/models"
)

func (r *Repo) AddDoctor(d models.Doctor) (int, error) {
	id, err := r.insert(
		"INSERT INTO doctors (full_name, average_appointment_min, schedule_id) VALUES (?, ?, ?)",
		d.FullName, d.AverageAppointmentMin, nullableID(d.ScheduleID),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add doctor: %w", err)
	}
	return id, nil
}

func (r *Repo) GetDoctor(id int) (models.Doctor, error) {
	row := r.queryRow(
		"SELECT id, full_name, average_appointment_min, schedule_id FROM doctors WHERE id = ?", id)
	d, err := scanDoctor(row)
	if err != nil {
		return models.Doctor{}, notFound(err, "doctor", id)
	}
	return d, nil
}

func (r *Repo) GetAllDoctors() ([]models.Doctor, error) {
	rows, err := r.query("SELECT id, full_name, average_appointment_min, schedule_id FROM doctors ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *Repo) AssignSchedule(doctorID, scheduleID int) error {
	return r.updateOne("doctor", doctorID,
		"UPDATE doctors SET schedule_id = ? WHERE id = ?", scheduleID, doctorID)
}

func (r *Repo) AddPatient(p models.Patient) (int, error) {
	id, err := r.insert("INSERT INTO patients (full_name, email) VALUES (?, ?)", p.FullName, p.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to add patient: %w", err)
	}
	return id, nil
}

func (r *Repo) GetPatient(id int) (models.Patient, error) {
	var p models.Patient
	err := r.queryRow("SELECT id, full_name, email FROM patients WHERE id = ?", id).
		Scan(&p.ID, &p.FullName, &p.Email)
	if err != nil {
		return models.Patient{}, notFound(err, "patient", id)
	}
	return p, nil
}

func (r *Repo) GetAllPatients() ([]models.Patient, error) {
	rows, err := r.query("SELECT id, full_name, email FROM patients ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoctor(s scanner) (models.Doctor, error) {
	var d models.Doctor
	var scheduleID sql.NullInt64
	if err := s.Scan(&d.ID, &d.FullName, &d.AverageAppointmentMin, &scheduleID); err != nil {
		return models.Doctor{}, err
	}
	if scheduleID.Valid {
		d.ScheduleID = int(scheduleID.Int64)
	}
	return d, nil
}

func nullableID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id > 0}
}
