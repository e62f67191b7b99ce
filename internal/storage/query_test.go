package storage

import (
	"reflect"
	"testing"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

func TestQuerySQL(t *testing.T) {
	q := Query{}.
		Where(EqualInt(FieldDoctor, 7)).
		Where(EqualBool(FieldWasOver, false)).
		Where(BetweenDates(FieldRealDate, clock.MustParseDate("2026-10-19"), clock.MustParseDate("2026-10-23"))).
		SortBy(FieldRealDate, false).
		SortBy(FieldID, true)

	tests := []struct {
		name        string
		placeholder func(int) string
		wantClause  string
	}{
		{
			name:        "sqlite",
			placeholder: QuestionPlaceholder,
			wantClause:  " WHERE doctor_id = ? AND was_over = ? AND real_date BETWEEN ? AND ? ORDER BY real_date, id DESC",
		},
		{
			name:        "postgres",
			placeholder: DollarPlaceholder,
			wantClause:  " WHERE doctor_id = $1 AND was_over = $2 AND real_date BETWEEN $3 AND $4 ORDER BY real_date, id DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args, err := q.SQL(tt.placeholder)
			if err != nil {
				t.Fatalf("SQL failed: %v", err)
			}
			if clause != tt.wantClause {
				t.Errorf("clause = %q\nwant      %q", clause, tt.wantClause)
			}
			wantArgs := []any{7, 0, "2026-10-19", "2026-10-23"}
			if !reflect.DeepEqual(args, wantArgs) {
				t.Errorf("args = %v, want %v", args, wantArgs)
			}
		})
	}
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"empty", Query{}, false},
		{"unknown filter", Query{}.Where(Equal("notes", "x")), true},
		{"unknown sort", Query{}.SortBy("notes", false), true},
		{"non-numeric id", Query{}.Where(Equal(FieldID, "abc")), true},
		{"numeric range", Query{}.Where(Between(FieldPatient, "1", "9")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryIsImmutable(t *testing.T) {
	base := Query{}.Where(EqualInt(FieldDoctor, 1))
	a := base.Where(EqualBool(FieldWasOver, true))
	b := base.Where(EqualBool(FieldWasOver, false))

	if len(base.Filters) != 1 {
		t.Errorf("base query was modified: %+v", base)
	}
	if a.Filters[1].From != "1" || b.Filters[1].From != "0" {
		t.Errorf("derived queries share storage: %+v %+v", a, b)
	}
}

func TestQueryMatch(t *testing.T) {
	a := models.Appointment{
		ID: 12, DoctorID: 3, PatientID: 9,
		Date:      clock.MustParseDate("2026-10-19"),
		Start:     clock.MustParseTime("09:00"),
		RealDate:  clock.MustParseDate("2026-10-20"),
		RealStart: clock.MustParseTime("09:30"),
		RealEnd:   clock.MustParseTime("09:50"),
	}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"no filters", Query{}, true},
		{"doctor", Query{}.Where(EqualInt(FieldDoctor, 3)), true},
		{"other doctor", Query{}.Where(EqualInt(FieldDoctor, 4)), false},
		{"unfinished", Query{}.Where(EqualBool(FieldWasOver, false)), true},
		{"finished", Query{}.Where(EqualBool(FieldWasOver, true)), false},
		{"real date", Query{}.Where(EqualDate(FieldRealDate, clock.MustParseDate("2026-10-20"))), true},
		{"requested date is not real date", Query{}.Where(EqualDate(FieldRealDate, clock.MustParseDate("2026-10-19"))), false},
		{"id range compares numerically", Query{}.Where(Between(FieldID, "9", "100")), true},
		{"start range", Query{}.Where(Between(FieldRealStart, "09:00:00", "09:30:00")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Match(a); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryLess(t *testing.T) {
	a := models.Appointment{ID: 2, Start: clock.MustParseTime("10:00")}
	b := models.Appointment{ID: 10, Start: clock.MustParseTime("09:00")}

	if !(Query{}).Less(a, b) {
		t.Error("default order should be by id")
	}
	if (Query{}).SortBy(FieldStart, false).Less(a, b) {
		t.Error("10:00 should sort after 09:00")
	}
	if !(Query{}).SortBy(FieldStart, true).Less(a, b) {
		t.Error("descending start should put 10:00 first")
	}
}
