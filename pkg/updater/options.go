package updater

import (
	"github.com/openmeteor/stationup/internal/app"
	"github.com/openmeteor/stationup/internal/ports"
)

// Re-export port types so embedders can supply their own implementations
// without importing internal packages.
type (
	// Logger is the structured logging interface consumed by the updater.
	Logger = ports.Logger

	// Field is a structured log field.
	Field = ports.Field

	// BackupStore preserves protected files across updates.
	BackupStore = ports.BackupStore

	// Tracker persists the durable interruption flag.
	Tracker = ports.Tracker

	// Applier performs the actual code and dependency refresh.
	Applier = ports.Applier

	// WatchConfig tunes the unattended trigger-file mode.
	WatchConfig = app.WatchConfig
)

// Option configures optional behavior of the Updater.
type Option func(*options)

// options holds the optional configuration for an Updater instance.
type options struct {
	logger      ports.Logger
	store       ports.BackupStore
	tracker     ports.Tracker
	applier     ports.Applier
	watchConfig app.WatchConfig
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		watchConfig: app.DefaultWatchConfig(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackupStore replaces the default directory-backed store.
func WithBackupStore(store BackupStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithTracker replaces the default flag-file tracker.
func WithTracker(tracker Tracker) Option {
	return func(o *options) {
		o.tracker = tracker
	}
}

// WithApplier replaces the default command applier. Use this to embed the
// updater with an in-process update step instead of a subprocess.
func WithApplier(applier Applier) Option {
	return func(o *options) {
		o.applier = applier
	}
}

// WithWatchConfig tunes debounce and retry behavior of Watch mode.
// Trigger path and skip-backup always follow the main Config.
func WithWatchConfig(cfg WatchConfig) Option {
	return func(o *options) {
		o.watchConfig = cfg
	}
}
