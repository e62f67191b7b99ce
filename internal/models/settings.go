package models

// Settings represents installation-wide optimizer settings
type Settings struct {
	PrecisionSec       int    `json:"precision_sec"`        // delta grid step of the span search, in seconds
	MaxRescheduleWeeks int    `json:"max_reschedule_weeks"` // how far an appointment may be pushed before failing
	Timezone           string `json:"timezone"`             // IANA timezone name, or "Local"
}
