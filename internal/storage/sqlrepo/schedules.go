package sqlrepo

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
	"github.com/julianstephens/clinicsched/internal/storage"
)

// SaveSchedule inserts s when s.ID is zero and updates it otherwise.
func (r *Repo) SaveSchedule(s models.Schedule) (int, error) {
	lunchStart, lunchEnd := sql.NullString{}, sql.NullString{}
	if s.Lunch.Valid {
		lunchStart = sql.NullString{String: s.Lunch.Start.String(), Valid: true}
		lunchEnd = sql.NullString{String: s.Lunch.End.String(), Valid: true}
	}

	if s.ID == 0 {
		id, err := r.insert(`
			INSERT INTO schedules (work_start, work_end, lunch_start, lunch_end, days_in_week)
			VALUES (?, ?, ?, ?, ?)`,
			s.Start.String(), s.End.String(), lunchStart, lunchEnd, s.DaysInWeek)
		if err != nil {
			return 0, fmt.Errorf("failed to add schedule: %w", err)
		}
		return id, nil
	}

	err := r.updateOne("schedule", s.ID, `
		UPDATE schedules SET work_start = ?, work_end = ?, lunch_start = ?, lunch_end = ?, days_in_week = ?
		WHERE id = ?`,
		s.Start.String(), s.End.String(), lunchStart, lunchEnd, s.DaysInWeek, s.ID)
	return s.ID, err
}

func (r *Repo) GetSchedule(id int) (models.Schedule, error) {
	row := r.queryRow(`
		SELECT id, work_start, work_end, lunch_start, lunch_end, days_in_week
		FROM schedules WHERE id = ?`, id)
	s, err := scanSchedule(row)
	if err != nil {
		return models.Schedule{}, notFound(err, "schedule", id)
	}
	return s, nil
}

func (r *Repo) GetScheduleForDoctor(doctorID int) (models.Schedule, error) {
	d, err := r.GetDoctor(doctorID)
	if err != nil {
		return models.Schedule{}, err
	}
	if d.ScheduleID == 0 {
		return models.Schedule{}, fmt.Errorf("schedule for doctor %d: %w", doctorID, storage.ErrNotFound)
	}
	return r.GetSchedule(d.ScheduleID)
}

func scanSchedule(s scanner) (models.Schedule, error) {
	var (
		sched              models.Schedule
		start, end         string
		lunchStart, lunchE sql.NullString
	)
	if err := s.Scan(&sched.ID, &start, &end, &lunchStart, &lunchE, &sched.DaysInWeek); err != nil {
		return models.Schedule{}, err
	}

	var err error
	if sched.Start, err = clock.ParseTime(start); err != nil {
		return models.Schedule{}, fmt.Errorf("schedule %d: %w", sched.ID, err)
	}
	if sched.End, err = clock.ParseTime(end); err != nil {
		return models.Schedule{}, fmt.Errorf("schedule %d: %w", sched.ID, err)
	}
	if lunchStart.Valid && lunchE.Valid {
		sched.Lunch.Valid = true
		if sched.Lunch.Start, err = clock.ParseTime(lunchStart.String); err != nil {
			return models.Schedule{}, fmt.Errorf("schedule %d lunch: %w", sched.ID, err)
		}
		if sched.Lunch.End, err = clock.ParseTime(lunchE.String); err != nil {
			return models.Schedule{}, fmt.Errorf("schedule %d lunch: %w", sched.ID, err)
		}
	}
	return sched, nil
}
