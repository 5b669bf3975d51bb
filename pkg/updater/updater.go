package updater

import (
	"context"
	"fmt"
	"path/filepath"

	adapterfs "github.com/openmeteor/stationup/internal/adapters/fs"
	adapterlog "github.com/openmeteor/stationup/internal/adapters/log"
	"github.com/openmeteor/stationup/internal/adapters/shell"
	"github.com/openmeteor/stationup/internal/app"
	"github.com/openmeteor/stationup/internal/domain"
	"github.com/openmeteor/stationup/internal/ports"
)

const lockFileName = "update.lock"

// Config holds the configuration for the update routine.
// WorkspaceDir is required; everything else has a derived default.
type Config struct {
	// WorkspaceDir is the managed source tree that gets reset and updated.
	WorkspaceDir string

	// BackupDir is the durable directory outside the workspace that holds
	// the protected files and the interruption flag.
	// Default: a ".stationup" directory next to the workspace.
	BackupDir string

	// ConfigFile is the station configuration file to preserve.
	// Default: <workspace>/.config
	ConfigFile string

	// MaskFile is the calibration mask image to preserve.
	// Default: <workspace>/mask.bmp
	MaskFile string

	// BuildDir is the transient build output directory removed each run.
	// Default: <workspace>/build
	BuildDir string

	// UpdateCmd and UpdateArgs describe the external update command run in
	// the workspace when no custom Applier is supplied.
	UpdateCmd  string
	UpdateArgs []string

	// SkipBackup skips both backup and restore of protected files.
	SkipBackup bool

	// TriggerFile is the file watched in Watch mode.
	// Default: <backup dir>/update_requested
	TriggerFile string
}

// SetDefaults fills derived defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.WorkspaceDir == "" {
		return
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(filepath.Dir(c.WorkspaceDir), ".stationup")
	}
	if c.ConfigFile == "" {
		c.ConfigFile = filepath.Join(c.WorkspaceDir, ".config")
	}
	if c.MaskFile == "" {
		c.MaskFile = filepath.Join(c.WorkspaceDir, "mask.bmp")
	}
	if c.BuildDir == "" {
		c.BuildDir = filepath.Join(c.WorkspaceDir, "build")
	}
	if c.TriggerFile == "" {
		c.TriggerFile = filepath.Join(c.BackupDir, "update_requested")
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("%w: workspace dir is required", domain.ErrInvalidConfig)
	}
	return nil
}

// Updater runs crash-safe updates for one workspace.
type Updater struct {
	cfg     Config
	core    *app.Updater
	watcher *app.Watcher
	tracker ports.Tracker
	logger  ports.Logger
}

// New creates an Updater with the given configuration.
func New(cfg Config, opts ...Option) (*Updater, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger = adapterlog.NewNoopLogger()
	if o.logger != nil {
		logger = o.logger
	}

	files := []domain.ProtectedFile{
		{Name: domain.FileConfig, WorkspacePath: cfg.ConfigFile},
		{Name: domain.FileMask, WorkspacePath: cfg.MaskFile},
	}

	var store ports.BackupStore = adapterfs.NewBackupDir(cfg.BackupDir, files)
	if o.store != nil {
		store = o.store
	}

	var tracker ports.Tracker = adapterfs.NewFlagFile(cfg.BackupDir)
	if o.tracker != nil {
		tracker = o.tracker
	}

	var applier ports.Applier
	switch {
	case o.applier != nil:
		applier = o.applier
	case cfg.UpdateCmd != "":
		applier = shell.NewCommandApplier(cfg.WorkspaceDir, cfg.UpdateCmd, cfg.UpdateArgs, logger)
	default:
		return nil, fmt.Errorf("%w: update command or custom applier is required", domain.ErrInvalidConfig)
	}

	core := app.NewUpdater(app.UpdaterConfig{
		BuildDir: cfg.BuildDir,
		LockPath: filepath.Join(cfg.BackupDir, lockFileName),
	}, store, tracker, applier, logger)

	watchCfg := o.watchConfig
	watchCfg.TriggerPath = cfg.TriggerFile
	watchCfg.SkipBackup = cfg.SkipBackup

	return &Updater{
		cfg:     cfg,
		core:    core,
		watcher: app.NewWatcher(watchCfg, core, logger),
		tracker: tracker,
		logger:  logger,
	}, nil
}

// Run executes one update attempt and returns when it completes.
// A failed applier leaves the interruption flag set for the next run.
func (u *Updater) Run(ctx context.Context) error {
	return u.core.Run(ctx, u.cfg.SkipBackup)
}

// Watch blocks until ctx is done, running an update each time the trigger
// file appears. Failed runs are retried with exponential backoff.
func (u *Updater) Watch(ctx context.Context) error {
	return u.watcher.Watch(ctx)
}

// Interrupted reports whether a prior run was left mid-flight.
func (u *Updater) Interrupted(ctx context.Context) bool {
	return u.tracker.Read(ctx).InProgress()
}
