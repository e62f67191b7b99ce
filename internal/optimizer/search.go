package optimizer

import (
	"context"
	"fmt"
	"slices"

	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/models"
)

// Pending is an unfinished appointment waiting for a span.
type Pending struct {
	ID        int
	Preferred clock.Time
	Duration  int // seconds, fixed for the whole search
}

// Result is the cheapest assignment found by Search.
// Spans[i] belongs to the i-th pending appointment.
type Result struct {
	Cost  int64
	Spans []Span
}

// Deltas returns the shift grid for the given precision: every multiple of
// precision inside [-(MaxSeconds-1), MaxSeconds), ordered by magnitude with
// the earlier shift first on ties (0, -p, +p, -2p, +2p, ...).
func Deltas(precision int) []int {
	if precision <= 0 {
		return []int{0}
	}
	lo, hi := -(clock.MaxSeconds - 1), clock.MaxSeconds
	deltas := []int{0}
	for d := precision; -d >= lo || d < hi; d += precision {
		if -d >= lo {
			deltas = append(deltas, -d)
		}
		if d < hi {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// cancelCheckEvery is how many candidates the search evaluates between
// context checks.
const cancelCheckEvery = 1 << 12

type searcher struct {
	ctx       context.Context
	pending   []Pending
	weights   []int
	sched     models.Schedule
	floor     clock.Time
	deltas    []int
	committed []Span

	// segs are the stretches of the window a span may occupy; need and
	// shortest hold the remaining work from each depth on.
	segs     []segment
	need     []int
	shortest []int
	busy     []Span

	nodes int
	err   error
	found bool
	best  Result
}

// Search assigns a span to every pending appointment so that no two spans
// overlap and every endpoint passes CheckTime, minimising
// sum(|shift_i| * weights[i]) over the delta grid. The boolean result is false
// when no such assignment exists. A done ctx aborts the search with an error
// matching ErrCanceled.
func Search(ctx context.Context, pending []Pending, weights []int, sched models.Schedule, floor clock.Time, precision int) (Result, bool, error) {
	segs := segments(pending, sched, floor)
	s := &searcher{
		ctx:       ctx,
		pending:   pending,
		weights:   weights,
		sched:     sched,
		floor:     floor,
		deltas:    Deltas(precision),
		committed: make([]Span, 0, len(pending)),
		segs:      segs,
		need:      make([]int, len(pending)+1),
		shortest:  make([]int, len(pending)+1),
		busy:      make([]Span, 0, len(pending)),
	}
	for i := len(pending) - 1; i >= 0; i-- {
		d := pending[i].Duration
		s.need[i] = s.need[i+1] + d
		s.shortest[i] = s.shortest[i+1]
		if d > 0 && (s.shortest[i] == 0 || d < s.shortest[i]) {
			s.shortest[i] = d
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, false, fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	s.walk(0, 0)
	if s.err != nil {
		return Result{}, false, s.err
	}
	if !s.found {
		return Result{}, false, nil
	}
	return s.best, true, nil
}

func (s *searcher) walk(depth int, cost int64) {
	if depth == len(s.pending) {
		if !s.found || cost < s.best.Cost {
			s.found = true
			s.best = Result{Cost: cost, Spans: append([]Span(nil), s.committed...)}
		}
		return
	}
	if !s.room(depth) {
		return
	}

	p := s.pending[depth]
	weight := int64(s.weights[depth])
	for _, delta := range s.deltas {
		if s.tick() {
			return
		}
		total := cost + int64(abs(delta))*weight
		// Deltas never shrink in magnitude, so nothing further down this list can win.
		if s.found && total >= s.best.Cost {
			return
		}
		span, ok := s.candidate(p, delta)
		if !ok {
			continue
		}
		s.committed = append(s.committed, span)
		s.walk(depth+1, total)
		s.committed = s.committed[:len(s.committed)-1]
		if s.err != nil {
			return
		}
	}
}

// tick counts one evaluated candidate and reports whether the search must stop.
func (s *searcher) tick() bool {
	if s.err != nil {
		return true
	}
	s.nodes++
	if s.nodes%cancelCheckEvery != 0 {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = fmt.Errorf("%w after %d candidates: %w", ErrCanceled, s.nodes, err)
		return true
	}
	return false
}

func (s *searcher) candidate(p Pending, delta int) (Span, bool) {
	start, ok := p.Preferred.Add(delta)
	if !ok {
		return Span{}, false
	}
	end, ok := start.Add(p.Duration)
	if !ok {
		return Span{}, false
	}
	if !CheckTime(start, s.sched, s.floor) || !CheckTime(end, s.sched, s.floor) {
		return Span{}, false
	}
	span := Span{Start: start, End: end}
	for _, c := range s.committed {
		if !NotIntersected(span, c) {
			return Span{}, false
		}
	}
	return span, true
}

// room reports whether the appointments from depth on can still fit in the
// free gaps the committed spans leave inside the segments. A gap shorter than
// the shortest remaining appointment is useless.
func (s *searcher) room(depth int) bool {
	need := s.need[depth]
	if need == 0 {
		return true
	}
	shortest := s.shortest[depth]
	s.busy = append(s.busy[:0], s.committed...)
	slices.SortFunc(s.busy, func(a, b Span) int { return a.Start.Compare(b.Start) })

	free := 0
	usable := func(lo, hi int) {
		if g := hi - lo; g > 0 && g >= shortest {
			free += g
		}
	}
	for _, seg := range s.segs {
		cur := seg.lo
		for _, c := range s.busy {
			cs, ce := c.Start.Seconds(), c.End.Seconds()
			if ce <= seg.lo || cs >= seg.hi {
				continue
			}
			usable(cur, cs)
			cur = max(cur, ce)
		}
		usable(cur, seg.hi)
	}
	return free >= need
}

// segment is a stretch [lo, hi] of the day in seconds that a span may lie in
// completely.
type segment struct {
	lo, hi int
}

func (g segment) len() int { return g.hi - g.lo }

// segments returns where spans may lie. Spans start strictly after floor and
// never end on or inside the lunch break. When no pending appointment is
// longer than the break, none can straddle it and the window splits into a
// before-lunch and an after-lunch segment.
func segments(pending []Pending, sched models.Schedule, floor clock.Time) []segment {
	lo := max(sched.Start.Seconds(), floor.Seconds()+1)
	end := sched.End.Seconds()
	whole := []segment{{lo: lo, hi: end}}
	if !sched.Lunch.Valid {
		return nonEmpty(whole)
	}
	lunch := sched.Lunch.End.Sub(sched.Lunch.Start)
	for _, p := range pending {
		if p.Duration > lunch {
			return nonEmpty(whole)
		}
	}
	return nonEmpty([]segment{
		{lo: lo, hi: sched.Lunch.Start.Seconds() - 1},
		{lo: max(lo, sched.Lunch.End.Seconds()+1), hi: end},
	})
}

func nonEmpty(segs []segment) []segment {
	out := segs[:0]
	for _, g := range segs {
		if g.hi >= g.lo {
			out = append(out, g)
		}
	}
	return out
}

// fits is a necessary condition for Search to succeed: the pending durations
// must pack into the segments of the working window. With two segments this
// is a subset-sum over the durations.
func fits(pending []Pending, sched models.Schedule, floor clock.Time) bool {
	if len(pending) == 0 {
		return true
	}
	segs := segments(pending, sched, floor)
	total := 0
	for _, p := range pending {
		total += p.Duration
	}
	switch len(segs) {
	case 0:
		return false
	case 1:
		return total <= segs[0].len()
	}

	first, second := segs[0].len(), segs[1].len()
	if total <= first || total <= second {
		return true
	}
	// reach[x] is true when some subset of the durations sums to x.
	reach := make([]bool, first+1)
	reach[0] = true
	for _, p := range pending {
		if p.Duration > first {
			continue
		}
		for x := first; x >= p.Duration; x-- {
			if reach[x-p.Duration] {
				reach[x] = true
			}
		}
	}
	for x := first; x >= 0 && total-x <= second; x-- {
		if reach[x] {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
