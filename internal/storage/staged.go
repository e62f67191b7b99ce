package storage

import (
	"fmt"
	"sort"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

// StagedView buffers writes in memory on top of another View. Reads and
// queries see the buffered values. Nothing reaches the underlying view until
// Commit.
type StagedView struct {
	base    View
	overlay map[int]models.Appointment
}

func NewStagedView(base View) *StagedView {
	return &StagedView{base: base, overlay: map[int]models.Appointment{}}
}

// Query evaluates q in memory so that staged values are taken into account.
func (v *StagedView) Query(q Query) ([]int, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ids, err := v.base.Query(Query{})
	if err != nil {
		return nil, err
	}

	var matched []models.Appointment
	for _, id := range ids {
		a, err := v.Appointment(id)
		if err != nil {
			return nil, err
		}
		if q.Match(a) {
			matched = append(matched, a)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return q.Less(matched[i], matched[j]) })

	out := make([]int, len(matched))
	for i, a := range matched {
		out[i] = a.ID
	}
	return out, nil
}

func (v *StagedView) Appointment(id int) (models.Appointment, error) {
	if a, ok := v.overlay[id]; ok {
		return a, nil
	}
	return v.base.Appointment(id)
}

func (v *StagedView) stage(id int, fn func(*models.Appointment)) error {
	a, err := v.Appointment(id)
	if err != nil {
		return err
	}
	fn(&a)
	v.overlay[id] = a
	return nil
}

func (v *StagedView) SetRealDate(id int, d clock.Date) error {
	return v.stage(id, func(a *models.Appointment) { a.RealDate = d })
}

func (v *StagedView) SetRealStart(id int, t clock.Time) error {
	return v.stage(id, func(a *models.Appointment) { a.RealStart = t })
}

func (v *StagedView) SetRealEnd(id int, t clock.Time) error {
	return v.stage(id, func(a *models.Appointment) { a.RealEnd = t })
}

// Change is a staged appointment next to its stored state.
type Change struct {
	Before models.Appointment `json:"before"`
	After  models.Appointment `json:"after"`
}

// Changes returns the appointments whose real date or span differs from the
// underlying view, ordered by id.
func (v *StagedView) Changes() ([]Change, error) {
	ids := make([]int, 0, len(v.overlay))
	for id := range v.overlay {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var changes []Change
	for _, id := range ids {
		before, err := v.base.Appointment(id)
		if err != nil {
			return nil, err
		}
		after := v.overlay[id]
		if before.RealDate == after.RealDate && before.RealStart == after.RealStart && before.RealEnd == after.RealEnd {
			continue
		}
		changes = append(changes, Change{Before: before, After: after})
	}
	return changes, nil
}

// Commit writes every staged change to the underlying view, together with
// the given reschedule attempts, and clears the buffer. A base view that is a
// RunApplier gets everything in one batch. Otherwise appointments are written
// one field at a time, and a finished appointment stops the commit.
func (v *StagedView) Commit(attempts ...models.RescheduleAttempt) error {
	changes, err := v.Changes()
	if err != nil {
		return err
	}

	if applier, ok := v.base.(RunApplier); ok {
		placements := make([]models.Appointment, len(changes))
		for i, c := range changes {
			placements[i] = c.After
		}
		if err := applier.ApplyRun(placements, attempts); err != nil {
			return fmt.Errorf("failed to commit staged changes: %w", err)
		}
		v.Discard()
		return nil
	}

	if len(attempts) > 0 {
		return fmt.Errorf("view %T cannot record reschedule attempts", v.base)
	}
	for _, c := range changes {
		a := c.After
		current, err := v.base.Appointment(a.ID)
		if err != nil {
			return fmt.Errorf("failed to commit appointment %d: %w", a.ID, err)
		}
		if current.WasOver {
			return fmt.Errorf("failed to commit appointment %d: %w", a.ID, ErrFinished)
		}
		if err := v.base.SetRealDate(a.ID, a.RealDate); err != nil {
			return fmt.Errorf("failed to commit appointment %d: %w", a.ID, err)
		}
		if err := v.base.SetRealStart(a.ID, a.RealStart); err != nil {
			return fmt.Errorf("failed to commit appointment %d: %w", a.ID, err)
		}
		if err := v.base.SetRealEnd(a.ID, a.RealEnd); err != nil {
			return fmt.Errorf("failed to commit appointment %d: %w", a.ID, err)
		}
	}
	v.Discard()
	return nil
}

// Discard drops every staged change.
func (v *StagedView) Discard() {
	v.overlay = map[int]models.Appointment{}
}
