package storage

import (
	"fmt"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

// View is the read/write capability an optimizer run gets over appointments.
type View interface {
	Query(q Query) ([]int, error)
	Appointment(id int) (models.Appointment, error)
	SetRealDate(id int, d clock.Date) error
	SetRealStart(id int, t clock.Time) error
	SetRealEnd(id int, t clock.Time) error
}

// RunApplier writes a run's placements and audit rows as one unit.
type RunApplier interface {
	ApplyRun(placements []models.Appointment, attempts []models.RescheduleAttempt) error
}

// DoctorView restricts a Provider to one doctor's appointments.
type DoctorView struct {
	store    Provider
	doctorID int
}

func NewDoctorView(store Provider, doctorID int) *DoctorView {
	return &DoctorView{store: store, doctorID: doctorID}
}

func (v *DoctorView) DoctorID() int { return v.doctorID }

func (v *DoctorView) Query(q Query) ([]int, error) {
	return v.store.QueryAppointments(q.Where(EqualInt(FieldDoctor, v.doctorID)))
}

func (v *DoctorView) Appointment(id int) (models.Appointment, error) {
	a, err := v.store.GetAppointment(id)
	if err != nil {
		return models.Appointment{}, err
	}
	if a.DoctorID != v.doctorID {
		return models.Appointment{}, fmt.Errorf("appointment %d for doctor %d: %w", id, v.doctorID, ErrNotFound)
	}
	return a, nil
}

func (v *DoctorView) owns(id int) error {
	_, err := v.Appointment(id)
	return err
}

func (v *DoctorView) SetRealDate(id int, d clock.Date) error {
	if err := v.owns(id); err != nil {
		return err
	}
	return v.store.SetRealDate(id, d)
}

func (v *DoctorView) SetRealStart(id int, t clock.Time) error {
	if err := v.owns(id); err != nil {
		return err
	}
	return v.store.SetRealStart(id, t)
}

func (v *DoctorView) SetRealEnd(id int, t clock.Time) error {
	if err := v.owns(id); err != nil {
		return err
	}
	return v.store.SetRealEnd(id, t)
}

// ApplyRun checks that every placement belongs to the doctor and hands the
// batch to the store.
func (v *DoctorView) ApplyRun(placements []models.Appointment, attempts []models.RescheduleAttempt) error {
	for _, a := range placements {
		if err := v.owns(a.ID); err != nil {
			return err
		}
	}
	return v.store.ApplyRun(placements, attempts)
}
