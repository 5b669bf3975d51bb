package domain

import "errors"

// Domain errors represent error conditions in the stationup domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrApplierFailed is returned when the external update step fails.
	// The interruption flag is left in place when this is returned.
	ErrApplierFailed = errors.New("stationup: applier failed")

	// ErrNoBackup is returned when a restore is requested for a file
	// that has never been backed up. Expected on a first-ever run.
	ErrNoBackup = errors.New("stationup: no backup for file")

	// ErrUnknownFile is returned when a logical file name is not part of
	// the protected file set.
	ErrUnknownFile = errors.New("stationup: unknown protected file")

	// ErrAlreadyRunning is returned when an update run is requested while
	// another run holds the update lock.
	ErrAlreadyRunning = errors.New("stationup: update already running")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("stationup: invalid configuration")
)
