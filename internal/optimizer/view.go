package optimizer

import (
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
	"github.com/julianstephens/clinicsched/internal/storage"
)

// AppointmentView is the slice of the record store the optimizer works through.
// Implementations are expected to be scoped to a single doctor.
type AppointmentView interface {
	Query(q storage.Query) ([]int, error)
	Appointment(id int) (models.Appointment, error)
	SetRealDate(id int, d clock.Date) error
	SetRealStart(id int, t clock.Time) error
	SetRealEnd(id int, t clock.Time) error
}
