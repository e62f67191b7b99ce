package constants

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the canonical time-of-day format (HH:MM:SS)
	TimeFormat = "15:04:05"

	// ShortTimeFormat is accepted on input and used for compact display (HH:MM)
	ShortTimeFormat = "15:04"
)
