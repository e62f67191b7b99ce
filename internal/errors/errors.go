package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/clinicsched/internal/clinic"
	"github.com/julianstephens/clinicsched/internal/keyring"
	"github.com/julianstephens/clinicsched/internal/lock"
	"github.com/julianstephens/clinicsched/internal/logger"
	"github.com/julianstephens/clinicsched/internal/optimizer"
	"github.com/julianstephens/clinicsched/internal/storage"
)

var hints = []struct {
	target error
	hint   string
}{
	{lock.ErrLocked, "another optimize run holds the doctor lock; wait for it to finish and retry"},
	{optimizer.ErrUnschedulable, "widen the working schedule or raise --max-weeks"},
	{optimizer.ErrMalformedSchedule, "fix the working hours with 'clinicsched schedule set'"},
	{optimizer.ErrCanceled, "raise run_timeout in the config file or use a coarser --precision"},
	{optimizer.ErrTooManyPending, "spread the bookings for that date across more days"},
	{storage.ErrFinished, "the appointment was finished meanwhile; re-run optimize"},
	{clinic.ErrNoSchedule, "assign working hours with 'clinicsched schedule set'"},
	{clinic.ErrInvalidOptions, "see 'clinicsched settings --list' for the current values"},
	{storage.ErrNotFound, "list existing records with 'clinicsched doctor list' or 'clinicsched appointment list'"},
	{keyring.ErrKeyringUnavailable, "use a .pgpass file or PG* environment variables instead"},
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Hint returns a follow-up suggestion for well-known failures, or "".
func Hint(err error) string {
	for _, h := range hints {
		if errors.Is(err, h.target) {
			return h.hint
		}
	}
	return ""
}

// Fatal logs an error, prints it with any hint and exits with code 1.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(os.Stderr, Format(err))
	if hint := Hint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(1)
}
