package models

import "github.com/julianstephens/clinicsched/internal/clock"

type Appointment struct {
	ID        int        `json:"id"`
	DoctorID  int        `json:"doctor_id"`
	PatientID int        `json:"patient_id"`
	Date      clock.Date `json:"date"`       // requested date
	Start     clock.Time `json:"start"`      // requested start
	RealDate  clock.Date `json:"real_date"`  // written by the optimizer
	RealStart clock.Time `json:"real_start"` // written by the optimizer
	RealEnd   clock.Time `json:"real_end"`   // written by the optimizer
	WasOver   bool       `json:"was_over"`
}

// Duration returns the length of the appointment in seconds.
func (a Appointment) Duration() int {
	return a.RealEnd.Sub(a.RealStart)
}

// Shift returns how far, in seconds, the real start drifted from the requested start
// on the same day. It is meaningless when RealDate differs from Date.
func (a Appointment) Shift() int {
	return a.RealStart.Sub(a.Start)
}

// Moved reports whether the appointment was pushed to another day.
func (a Appointment) Moved() bool {
	return a.RealDate != a.Date
}
