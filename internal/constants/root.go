package constants

import "time"

const (
	AppName            = "clinicsched"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/clinicsched/clinicsched.db"
	Version            = "v0.3.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "clinicsched-"
	BackupFileSuffix = ".db"

	// Lock constants
	LockDirName        = "locks"
	LockFilePrefix     = "doctor-"
	LockFileSuffix     = ".lock"
	LockAcquireRetries = 3
	LockRetryDelay     = 50 * time.Millisecond

	// Server constants
	DefaultServerAddr  = "127.0.0.1:8085"
	DefaultConcurrency = 4
)
