package constants

import "time"

const (
	// Search bounds:
	// - MinPrecisionSec keeps the delta grid from exploding the exhaustive search.
	// - MaxPrecisionSec is one hour; anything coarser rarely lands on a usable slot.
	MinPrecisionSec = 30
	MaxPrecisionSec = 3600

	// MaxRescheduleWeeksLimit caps how far an appointment may be pushed forward.
	MaxRescheduleWeeksLimit = 52

	// MaxPendingPerDay keeps the Fibonacci weights and the weighted cost of a
	// full day's shifts inside int64.
	MaxPendingPerDay = 64
)

// DefaultRunTimeout bounds a single doctor's optimization run when the
// caller's context carries no deadline.
const DefaultRunTimeout = 2 * time.Minute

func init() {
	if DefaultPrecisionSec < MinPrecisionSec || DefaultPrecisionSec > MaxPrecisionSec {
		panic("DefaultPrecisionSec must lie within [MinPrecisionSec, MaxPrecisionSec]")
	}
	if DefaultMaxRescheduleWeeks < 1 || DefaultMaxRescheduleWeeks > MaxRescheduleWeeksLimit {
		panic("DefaultMaxRescheduleWeeks must lie within [1, MaxRescheduleWeeksLimit]")
	}
}
