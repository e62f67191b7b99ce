package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

// Field names an appointment column that can be filtered and sorted on.
type Field string

const (
	FieldID        Field = "id"
	FieldDoctor    Field = "doctor_id"
	FieldPatient   Field = "patient_id"
	FieldDate      Field = "date"
	FieldStart     Field = "start"
	FieldRealDate  Field = "real_date"
	FieldRealStart Field = "real_start"
	FieldRealEnd   Field = "real_end"
	FieldWasOver   Field = "was_over"
)

var numericFields = map[Field]bool{
	FieldID:      true,
	FieldDoctor:  true,
	FieldPatient: true,
	FieldWasOver: true,
}

// Valid reports whether f is a known appointment column.
func (f Field) Valid() bool {
	switch f {
	case FieldID, FieldDoctor, FieldPatient, FieldDate, FieldStart,
		FieldRealDate, FieldRealStart, FieldRealEnd, FieldWasOver:
		return true
	}
	return false
}

// Filter restricts a field to the closed range [From, To]. Equality is a range with From == To.
// Values use the stored text form: YYYY-MM-DD dates, HH:MM:SS times, decimal integers,
// and 0/1 for booleans.
type Filter struct {
	Field Field
	From  string
	To    string
}

// Order sorts by a field, ascending unless Desc is set.
type Order struct {
	Field Field
	Desc  bool
}

// Query is an immutable filter/sort description over appointments.
type Query struct {
	Filters []Filter
	Order   []Order
}

func Equal(f Field, v string) Filter          { return Filter{Field: f, From: v, To: v} }
func Between(f Field, from, to string) Filter { return Filter{Field: f, From: from, To: to} }
func EqualInt(f Field, v int) Filter          { return Equal(f, strconv.Itoa(v)) }
func EqualDate(f Field, d clock.Date) Filter  { return Equal(f, d.String()) }
func BetweenDates(f Field, from, to clock.Date) Filter {
	return Between(f, from.String(), to.String())
}

func EqualBool(f Field, v bool) Filter {
	if v {
		return Equal(f, "1")
	}
	return Equal(f, "0")
}

// Where returns a copy of q with f added.
func (q Query) Where(f Filter) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, f)
	return q
}

// SortBy returns a copy of q with an additional sort key.
func (q Query) SortBy(f Field, desc bool) Query {
	order := make([]Order, 0, len(q.Order)+1)
	order = append(order, q.Order...)
	q.Order = append(order, Order{Field: f, Desc: desc})
	return q
}

// Validate rejects unknown fields before they reach SQL.
func (q Query) Validate() error {
	for _, f := range q.Filters {
		if !f.Field.Valid() {
			return fmt.Errorf("unknown filter field %q", f.Field)
		}
		if numericFields[f.Field] {
			if _, err := strconv.Atoi(f.From); err != nil {
				return fmt.Errorf("filter on %s: %q is not an integer", f.Field, f.From)
			}
			if _, err := strconv.Atoi(f.To); err != nil {
				return fmt.Errorf("filter on %s: %q is not an integer", f.Field, f.To)
			}
		}
	}
	for _, o := range q.Order {
		if !o.Field.Valid() {
			return fmt.Errorf("unknown sort field %q", o.Field)
		}
	}
	return nil
}

// SQL renders the WHERE and ORDER BY clauses. placeholder returns the bind
// marker for the n-th argument (1-based), e.g. "?" for SQLite or "$n" for PostgreSQL.
// Column names come from the Field whitelist, never from caller input.
func (q Query) SQL(placeholder func(n int) string) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var args []any
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		from, to := bindValue(f.Field, f.From), bindValue(f.Field, f.To)
		if f.From == f.To {
			args = append(args, from)
			fmt.Fprintf(&b, "%s = %s", f.Field, placeholder(len(args)))
			continue
		}
		args = append(args, from, to)
		fmt.Fprintf(&b, "%s BETWEEN %s AND %s", f.Field, placeholder(len(args)-1), placeholder(len(args)))
	}

	for i, o := range q.Order {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(string(o.Field))
		if o.Desc {
			b.WriteString(" DESC")
		}
	}
	return b.String(), args, nil
}

func bindValue(f Field, v string) any {
	if numericFields[f] {
		n, _ := strconv.Atoi(v)
		return n
	}
	return v
}

// Match reports whether a satisfies every filter of q.
func (q Query) Match(a models.Appointment) bool {
	for _, f := range q.Filters {
		if numericFields[f.Field] {
			v := numericValue(a, f.Field)
			from, _ := strconv.Atoi(f.From)
			to, _ := strconv.Atoi(f.To)
			if v < from || v > to {
				return false
			}
			continue
		}
		v := textValue(a, f.Field)
		if v < f.From || v > f.To {
			return false
		}
	}
	return true
}

// Less orders a before b according to q's sort keys, falling back to id.
func (q Query) Less(a, b models.Appointment) bool {
	for _, o := range q.Order {
		c := compareField(a, b, o.Field)
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

func compareField(a, b models.Appointment, f Field) int {
	if numericFields[f] {
		x, y := numericValue(a, f), numericValue(b, f)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(textValue(a, f), textValue(b, f))
}

func numericValue(a models.Appointment, f Field) int {
	switch f {
	case FieldID:
		return a.ID
	case FieldDoctor:
		return a.DoctorID
	case FieldPatient:
		return a.PatientID
	case FieldWasOver:
		if a.WasOver {
			return 1
		}
	}
	return 0
}

func textValue(a models.Appointment, f Field) string {
	switch f {
	case FieldDate:
		return a.Date.String()
	case FieldStart:
		return a.Start.String()
	case FieldRealDate:
		return a.RealDate.String()
	case FieldRealStart:
		return a.RealStart.String()
	case FieldRealEnd:
		return a.RealEnd.String()
	}
	return ""
}
