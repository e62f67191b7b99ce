package constants

const (
	// General Settings
	SettingPrecisionSec       = "precision_sec"
	SettingMaxRescheduleWeeks = "max_reschedule_weeks"
	SettingTimezone           = "timezone"

	// Default Settings Values
	DefaultPrecisionSec          = 250
	DefaultMaxRescheduleWeeks    = 4
	DefaultTimezone              = "Local" // Use system local timezone by default
	DefaultDaysInWeek            = 5
	DefaultAverageAppointmentMin = 20
)
