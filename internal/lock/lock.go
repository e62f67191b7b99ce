// Package lock serialises optimizer runs per doctor, both inside one process
// and across processes sharing the same config directory.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/logger"
)

// ErrLocked is matched by every *LockedError.
var ErrLocked = errors.New("doctor is locked by another optimization run")

var (
	findProcessFunc = ps.FindProcess
	getPIDFunc      = os.Getpid
)

// LockedError reports who holds a doctor's lock.
type LockedError struct {
	DoctorID int
	PID      int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("doctor %d is locked by pid %d", e.DoctorID, e.PID)
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// Manager hands out per-doctor locks backed by lockfiles in dir.
type Manager struct {
	dir string

	mu   sync.Mutex
	held map[int]bool
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir, held: map[int]bool{}}
}

// Dir returns the lockfile directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) path(doctorID int) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s%d%s", constants.LockFilePrefix, doctorID, constants.LockFileSuffix))
}

// Acquire takes the lock for doctorID. The returned function releases it.
func (m *Manager) Acquire(doctorID int) (func() error, error) {
	m.mu.Lock()
	if m.held[doctorID] {
		m.mu.Unlock()
		return nil, &LockedError{DoctorID: doctorID, PID: getPIDFunc()}
	}
	m.held[doctorID] = true
	m.mu.Unlock()

	if err := m.acquireFile(doctorID); err != nil {
		m.forget(doctorID)
		return nil, err
	}

	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() {
			if rmErr := os.Remove(m.path(doctorID)); rmErr != nil && !os.IsNotExist(rmErr) {
				err = fmt.Errorf("failed to remove lockfile: %w", rmErr)
			}
			m.forget(doctorID)
		})
		return err
	}
	return release, nil
}

func (m *Manager) forget(doctorID int) {
	m.mu.Lock()
	delete(m.held, doctorID)
	m.mu.Unlock()
}

func (m *Manager) acquireFile(doctorID int) error {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := m.path(doctorID)

	for attempt := 0; attempt < constants.LockAcquireRetries; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", getPIDFunc())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lockfile: %w", err)
		}

		pid, alive := holder(path)
		if alive {
			return &LockedError{DoctorID: doctorID, PID: pid}
		}
		logger.Warn("Removing stale lockfile", "path", path, "pid", pid)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
		time.Sleep(constants.LockRetryDelay)
	}
	return fmt.Errorf("failed to acquire lock for doctor %d after %d attempts", doctorID, constants.LockAcquireRetries)
}

// holder reads the PID stored in a lockfile and reports whether that process
// is still a live instance of this program.
func holder(path string) (int, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if pid == getPIDFunc() {
		return pid, true
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	return pid, strings.HasPrefix(process.Executable(), constants.AppName)
}
