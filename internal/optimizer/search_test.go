package optimizer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

func span(start, end string) Span {
	return Span{Start: clock.MustParseTime(start), End: clock.MustParseTime(end)}
}

func TestNotIntersected(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"disjoint", span("09:00", "09:20"), span("10:00", "10:20"), true},
		{"disjoint reversed", span("10:00", "10:20"), span("09:00", "09:20"), true},
		{"touching", span("09:00", "09:20"), span("09:20", "09:40"), true},
		{"touching reversed", span("09:20", "09:40"), span("09:00", "09:20"), true},
		{"overlap", span("09:00", "09:30"), span("09:20", "09:40"), false},
		{"contained", span("09:00", "10:00"), span("09:20", "09:40"), false},
		{"identical", span("09:00", "09:20"), span("09:00", "09:20"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NotIntersected(tt.a, tt.b); got != tt.want {
				t.Errorf("NotIntersected(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCheckTimeBase(t *testing.T) {
	plain := schedule("09:00", "17:00")
	lunch := withLunch(plain, "12:00", "13:00")

	tests := []struct {
		name  string
		sched models.Schedule
		time  string
		want  bool
	}{
		{"before start", plain, "08:59:59", false},
		{"at start", plain, "09:00", true},
		{"at end", plain, "17:00", true},
		{"after end", plain, "17:00:01", false},
		{"before lunch", lunch, "11:59:59", true},
		{"lunch start", lunch, "12:00", false},
		{"inside lunch", lunch, "12:15", false},
		{"lunch end", lunch, "13:00", false},
		{"after lunch", lunch, "13:00:01", true},
		{"end with lunch", lunch, "17:00", true},
		{"after end with lunch", lunch, "17:30", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckTimeBase(clock.MustParseTime(tt.time), tt.sched); got != tt.want {
				t.Errorf("CheckTimeBase(%s) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}
}

func TestCheckTime_Floor(t *testing.T) {
	sched := schedule("09:00", "17:00")
	floor := Floor([]models.Appointment{
		appt(1, "2026-10-19", "09:00", 1800, true),
		appt(2, "2026-10-19", "09:40", 1200, true),
	})
	if floor.String() != "10:00:00" {
		t.Fatalf("Floor = %s, want 10:00:00", floor)
	}
	if CheckTime(clock.MustParseTime("10:00"), sched, floor) {
		t.Error("time equal to the floor must be rejected")
	}
	if !CheckTime(clock.MustParseTime("10:00:01"), sched, floor) {
		t.Error("time after the floor should be accepted")
	}
	if Floor(nil) != (clock.Time{}) {
		t.Error("empty floor should be midnight")
	}
}

func TestWeights(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, []int{}},
		{1, []int{1}},
		{2, []int{1, 1}},
		{3, []int{2, 1, 1}},
		{4, []int{3, 2, 1, 1}},
		{5, []int{5, 3, 2, 1, 1}},
		{6, []int{8, 5, 3, 2, 1, 1}},
	}
	for _, tt := range tests {
		if got := Weights(tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Weights(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestDeltas(t *testing.T) {
	deltas := Deltas(250)
	if !reflect.DeepEqual(deltas[:5], []int{0, -250, 250, -500, 500}) {
		t.Errorf("unexpected head %v", deltas[:5])
	}
	seen := map[int]bool{}
	for i, d := range deltas {
		if d%250 != 0 {
			t.Errorf("delta %d is not on the grid", d)
		}
		if d < -(clock.MaxSeconds-1) || d >= clock.MaxSeconds {
			t.Errorf("delta %d out of range", d)
		}
		if seen[d] {
			t.Errorf("delta %d repeated", d)
		}
		seen[d] = true
		if i > 0 && abs(d) < abs(deltas[i-1]) {
			t.Errorf("delta %d after %d breaks magnitude order", d, deltas[i-1])
		}
	}
	// 345 multiples on each side of zero fit inside the day.
	if len(deltas) != 1+2*345 {
		t.Errorf("got %d deltas, want %d", len(deltas), 1+2*345)
	}
}

func pending(id int, start string, dur int) Pending {
	return Pending{ID: id, Preferred: clock.MustParseTime(start), Duration: dur}
}

func TestSearch_Scenarios(t *testing.T) {
	t.Run("single appointment at schedule start", func(t *testing.T) {
		sched := withLunch(schedule("09:00", "17:00"), "12:00", "13:00")
		res, ok, _ := Search(context.Background(), []Pending{pending(1, "09:00", 1200)}, Weights(1), sched, clock.Time{}, 250)
		if !ok {
			t.Fatal("expected a solution")
		}
		if res.Cost != 0 || res.Spans[0] != span("09:00", "09:20") {
			t.Errorf("got cost %d spans %v", res.Cost, res.Spans)
		}
	})

	t.Run("identical requests split apart", func(t *testing.T) {
		sched := schedule("08:00", "17:00")
		p := []Pending{pending(1, "10:00", 1200), pending(2, "10:00", 1200)}
		res, ok, _ := Search(context.Background(), p, Weights(2), sched, clock.Time{}, 250)
		if !ok {
			t.Fatal("expected a solution")
		}
		if !NotIntersected(res.Spans[0], res.Spans[1]) {
			t.Fatalf("spans overlap: %v", res.Spans)
		}
		first := abs(res.Spans[0].Start.Sub(p[0].Preferred))
		second := abs(res.Spans[1].Start.Sub(p[1].Preferred))
		if first != 0 || second != 1250 {
			t.Errorf("shifts = %d, %d; want 0, 1250", first, second)
		}
	})

	t.Run("request inside lunch", func(t *testing.T) {
		sched := withLunch(schedule("11:50", "17:00"), "12:00", "13:00")
		if CheckTimeBase(clock.MustParseTime("12:15"), sched) {
			t.Fatal("12:15 should be rejected")
		}
		res, ok, _ := Search(context.Background(), []Pending{pending(1, "12:15", 1200)}, Weights(1), sched, clock.Time{}, 250)
		if !ok {
			t.Fatal("expected a solution")
		}
		if res.Spans[0].Start.String() != "13:00:50" {
			t.Errorf("start = %s, want 13:00:50", res.Spans[0].Start)
		}
		if res.Cost != 2750 {
			t.Errorf("cost = %d, want 2750", res.Cost)
		}
	})

	t.Run("longer than the working day", func(t *testing.T) {
		sched := schedule("09:00", "10:00")
		p := []Pending{pending(1, "09:00", 7200)}
		if fits(p, sched, clock.Time{}) {
			t.Error("capacity check should reject")
		}
		if _, ok, _ := Search(context.Background(), p, Weights(1), sched, clock.Time{}, 250); ok {
			t.Error("expected no solution")
		}
	})

	t.Run("after finished appointment", func(t *testing.T) {
		sched := schedule("09:00", "17:00")
		floor := clock.MustParseTime("10:00")
		res, ok, _ := Search(context.Background(), []Pending{pending(1, "09:30", 1200)}, Weights(1), sched, floor, 250)
		if !ok {
			t.Fatal("expected a solution")
		}
		if !res.Spans[0].Start.After(floor) {
			t.Errorf("start %s not after floor %s", res.Spans[0].Start, floor)
		}
		if res.Spans[0].Start.String() != "10:03:20" {
			t.Errorf("start = %s, want 10:03:20", res.Spans[0].Start)
		}
	})
}

func TestSearch_NoPending(t *testing.T) {
	res, ok, _ := Search(context.Background(), nil, nil, schedule("09:00", "17:00"), clock.Time{}, 250)
	if !ok || res.Cost != 0 || len(res.Spans) != 0 {
		t.Errorf("got %+v, %v", res, ok)
	}
}

// bruteForce evaluates every combination of deltas and returns the lowest cost.
func bruteForce(p []Pending, weights []int, sched models.Schedule, floor clock.Time, precision int) (int64, bool) {
	deltas := Deltas(precision)
	var (
		best  int64
		found bool
	)
	spans := make([]Span, len(p))
	var rec func(i int, cost int64)
	rec = func(i int, cost int64) {
		if i == len(p) {
			if !found || cost < best {
				best, found = cost, true
			}
			return
		}
	next:
		for _, d := range deltas {
			start, ok := p[i].Preferred.Add(d)
			if !ok {
				continue
			}
			end, ok := start.Add(p[i].Duration)
			if !ok || !CheckTime(start, sched, floor) || !CheckTime(end, sched, floor) {
				continue
			}
			s := Span{Start: start, End: end}
			for _, prev := range spans[:i] {
				if !NotIntersected(s, prev) {
					continue next
				}
			}
			spans[i] = s
			rec(i+1, cost+int64(abs(d)*weights[i]))
		}
	}
	rec(0, 0)
	return best, found
}

func TestSearch_MatchesBruteForce(t *testing.T) {
	sched := withLunch(schedule("08:00", "14:00"), "11:00", "12:00")
	tests := []struct {
		name    string
		pending []Pending
		floor   clock.Time
	}{
		{"stacked", []Pending{pending(1, "09:00", 3600), pending(2, "09:00", 3600), pending(3, "09:00", 3600)}, clock.Time{}},
		{"around lunch", []Pending{pending(1, "10:30", 1800), pending(2, "11:00", 3600), pending(3, "12:00", 1800)}, clock.Time{}},
		{"behind floor", []Pending{pending(1, "08:00", 1800), pending(2, "09:00", 1800)}, clock.MustParseTime("09:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Weights(len(tt.pending))
			want, wantOK := bruteForce(tt.pending, w, sched, tt.floor, 1800)
			got, ok, _ := Search(context.Background(), tt.pending, w, sched, tt.floor, 1800)
			if ok != wantOK {
				t.Fatalf("Search ok = %v, brute force ok = %v", ok, wantOK)
			}
			if ok && got.Cost != want {
				t.Errorf("Search cost = %d, brute force = %d", got.Cost, want)
			}
		})
	}
}

func TestFits(t *testing.T) {
	lunch := withLunch(schedule("09:00", "17:00"), "12:00", "13:00")
	halfHours := func(n int) []Pending {
		p := make([]Pending, n)
		for i := range p {
			p[i] = pending(i+1, "09:00", 1800)
		}
		return p
	}
	tests := []struct {
		name    string
		pending []Pending
		sched   models.Schedule
		floor   clock.Time
		want    bool
	}{
		{"booked day cannot end on lunch start", halfHours(14), lunch, clock.Time{}, false},
		{"thirteen still too many", halfHours(13), lunch, clock.Time{}, false},
		{"five before and seven after", halfHours(12), lunch, clock.Time{}, true},
		{"no lunch fills the window", halfHours(16), schedule("09:00", "17:00"), clock.Time{}, true},
		{
			"sum fits but the halves do not",
			[]Pending{pending(1, "09:00", 2000), pending(2, "09:00", 2000), pending(3, "09:00", 2000)},
			withLunch(schedule("09:00", "12:00"), "10:00", "11:00"),
			clock.Time{},
			false,
		},
		{
			"longer than lunch may straddle it",
			[]Pending{pending(1, "11:30", 3600)},
			withLunch(schedule("11:00", "13:00"), "12:00", "12:30"),
			clock.Time{},
			true,
		},
		{"floor eats the morning", halfHours(8), lunch, clock.MustParseTime("12:30"), false},
		{"floor leaves the afternoon", halfHours(7), lunch, clock.MustParseTime("12:30"), true},
		{"nothing pending", nil, lunch, clock.MustParseTime("17:00"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fits(tt.pending, tt.sched, tt.floor); got != tt.want {
				t.Errorf("fits = %v, want %v", got, tt.want)
			}
		})
	}
}

// stopAfter reports cancellation once Err has been polled n times.
type stopAfter struct {
	context.Context
	n int
}

func (c *stopAfter) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestSearch_StopsWhenCanceled(t *testing.T) {
	// Six 80-minute requests exactly fill 09:00-17:00, but the lunch break
	// keeps every exact packing out, so the search has to keep looking.
	sched := withLunch(schedule("09:00", "17:00"), "12:00", "13:00")
	var p []Pending
	for i := 1; i <= 6; i++ {
		p = append(p, pending(i, "09:00", 4800))
	}

	ctx := &stopAfter{Context: context.Background(), n: 1}
	_, ok, err := Search(ctx, p, Weights(len(p)), sched, clock.Time{}, 250)
	if ok {
		t.Fatal("expected no solution")
	}
	if err != nil && (!errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled)) {
		t.Fatalf("expected ErrCanceled wrapping context.Canceled, got %v", err)
	}

	done, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Search(done, p, Weights(len(p)), sched, clock.Time{}, 250); !errors.Is(err, ErrCanceled) {
		t.Errorf("already canceled context: expected ErrCanceled, got %v", err)
	}
}
