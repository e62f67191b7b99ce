package models

import (
	"fmt"

	"github.com/julianstephens/clinicsched/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingPrecisionSec:
			if _, err := fmt.Sscanf(value, "%d", &settings.PrecisionSec); err != nil {
				return Settings{}, fmt.Errorf("parsing precision_sec: %w", err)
			}
		case constants.SettingMaxRescheduleWeeks:
			if _, err := fmt.Sscanf(value, "%d", &settings.MaxRescheduleWeeks); err != nil {
				return Settings{}, fmt.Errorf("parsing max_reschedule_weeks: %w", err)
			}
		case constants.SettingTimezone:
			settings.Timezone = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingPrecisionSec:       fmt.Sprintf("%d", settings.PrecisionSec),
		constants.SettingMaxRescheduleWeeks: fmt.Sprintf("%d", settings.MaxRescheduleWeeks),
		constants.SettingTimezone:           settings.Timezone,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.PrecisionSec == 0 {
		settings.PrecisionSec = constants.DefaultPrecisionSec
	}
	if settings.MaxRescheduleWeeks == 0 {
		settings.MaxRescheduleWeeks = constants.DefaultMaxRescheduleWeeks
	}
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
}
