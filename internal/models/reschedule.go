package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/clinicsched/internal/clock"
)

// RescheduleAttempt records an appointment pushed to a later workday by an optimization run.
type RescheduleAttempt struct {
	ID            uuid.UUID  `json:"id"`
	RunID         uuid.UUID  `json:"run_id"`
	AppointmentID int        `json:"appointment_id"`
	FromDate      clock.Date `json:"from_date"`
	ToDate        clock.Date `json:"to_date"`
	CreatedAt     time.Time  `json:"created_at"`
}
