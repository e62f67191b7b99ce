package optimizer

import "github.com/julianstephens/clinicsched/internal/clock"

// Span is the time an appointment occupies on its day.
type Span struct {
	Start clock.Time `json:"start"`
	End   clock.Time `json:"end"`
}

// Duration returns the span length in seconds.
func (s Span) Duration() int {
	return s.End.Sub(s.Start)
}

// NotIntersected reports whether a and b do not overlap.
// Spans that only touch at an endpoint do not overlap.
func NotIntersected(a, b Span) bool {
	return !a.Start.Before(b.End) || !a.End.After(b.Start)
}
