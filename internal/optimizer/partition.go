package optimizer

import (
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/storage"
)

// AppointmentIDs returns the ids of finished (unfinished == false) or
// unfinished appointments in ascending order, limited to those whose real
// date is date when date is non-nil.
func AppointmentIDs(view AppointmentView, date *clock.Date, unfinished bool) ([]int, error) {
	q := storage.Query{}.Where(storage.EqualBool(storage.FieldWasOver, !unfinished))
	if date != nil {
		q = q.Where(storage.EqualDate(storage.FieldRealDate, *date))
	}
	return view.Query(q.SortBy(storage.FieldID, false))
}
