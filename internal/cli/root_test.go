package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/clinicsched/internal/clock"
)

func TestParseDay(t *testing.T) {
	loc := time.UTC
	today := clock.Today(loc)

	tests := []struct {
		in      string
		want    clock.Date
		wantErr bool
	}{
		{"2026-10-19", clock.MustParseDate("2026-10-19"), false},
		{"today", today, false},
		{"", today, false},
		{"Tomorrow", today.AddDays(1), false},
		{"19/10/2026", clock.Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDay(tt.in, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatShift(t *testing.T) {
	tests := map[int]string{
		0:     "0",
		1250:  "+20m50s",
		-300:  "-5m0s",
		3600:  "+1h0m0s",
		86399: "+23h59m59s",
	}
	for in, want := range tests {
		if got := FormatShift(in); got != want {
			t.Errorf("FormatShift(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTable(t *testing.T) {
	out := Table([]string{"ID", "Name"}, [][]string{{"1", "Dr. Ada"}, {"2", "Dr. Grace"}})
	for _, want := range []string{"ID", "Name", "Dr. Ada", "Dr. Grace"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines < 4 {
		t.Errorf("expected bordered table, got %d lines:\n%s", lines, out)
	}
}
