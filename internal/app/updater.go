// Package app contains the update orchestration core.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openmeteor/stationup/internal/domain"
	"github.com/openmeteor/stationup/internal/ports"
)

// UpdaterConfig holds the orchestrator's own knobs. All durable state lives
// behind the BackupStore and Tracker ports.
type UpdaterConfig struct {
	// BuildDir is the workspace's transient build output directory,
	// removed at the start of every run.
	BuildDir string

	// LockPath is the lock file guarding against concurrent runs.
	LockPath string
}

// Updater runs the full update sequence exactly once per invocation. It
// decides whether protected files are backed up and restored, and guarantees
// the workspace ends in a consistent state regardless of where a prior run
// was interrupted.
//
// The only durable state is the interruption flag: a run that dies at any
// point between the first Mark and the final clear leaves the flag set, and
// the next run observes it and skips the backup step, trusting the existing
// backup as the last known good copy.
type Updater struct {
	cfg     UpdaterConfig
	store   ports.BackupStore
	tracker ports.Tracker
	applier ports.Applier
	logger  ports.Logger
}

// NewUpdater creates an Updater wired to the given ports.
func NewUpdater(cfg UpdaterConfig, store ports.BackupStore, tracker ports.Tracker, applier ports.Applier, logger ports.Logger) *Updater {
	return &Updater{
		cfg:     cfg,
		store:   store,
		tracker: tracker,
		applier: applier,
		logger:  logger,
	}
}

// Run executes one update attempt.
//
// skipBackup skips both backup and restore of protected files regardless of
// tracker state (the unattended path). Independently, backup alone is
// skipped when a prior run left the interruption flag set: the backup root
// already holds the authoritative last-known-good copies, and re-backing-up
// now could capture a partially reset workspace.
//
// An applier failure is the only fatal outcome; it leaves the flag set for
// the next invocation. File-level backup/restore failures are logged and
// tolerated, because a stale backup is preferable to aborting the update.
func (u *Updater) Run(ctx context.Context, skipBackup bool) error {
	unlock, err := acquireLock(u.cfg.LockPath)
	if err != nil {
		return err
	}
	defer unlock()

	prior := u.tracker.Read(ctx)
	skip := skipBackup || prior.InProgress()
	if prior.InProgress() {
		u.logger.Warn("previous update was interrupted, trusting existing backup",
			ports.String("phase", prior.Phase.String()),
			ports.String("prior_run_id", prior.RunID))
	}

	now := time.Now().UTC()
	flag := domain.Flag{RunID: uuid.NewString(), StartedAt: now, UpdatedAt: now}
	u.logger.Info("starting update",
		ports.String("run_id", flag.RunID),
		ports.Bool("skip_backup", skip))

	if !skip {
		if !u.store.Exists() {
			u.logger.Info("backup root not initialized, treating as first update")
		}
		for _, name := range domain.ProtectedFiles {
			if err := u.store.Save(ctx, name); err != nil {
				u.logger.Warn("backup failed, continuing without it",
					ports.String("file", string(name)),
					ports.Err(err))
			}
		}
	}

	// From here until the final clear the flag stays set on disk, so a
	// crash anywhere below makes the next run skip its backup step.
	if err := u.tracker.Mark(ctx, flag.Advance(domain.PhaseResetting, time.Now().UTC())); err != nil {
		return fmt.Errorf("mark resetting: %w", err)
	}
	if u.cfg.BuildDir != "" {
		if err := os.RemoveAll(u.cfg.BuildDir); err != nil {
			u.logger.Warn("build directory removal failed",
				ports.String("dir", u.cfg.BuildDir),
				ports.Err(err))
		}
	}

	if err := u.tracker.Mark(ctx, flag.Advance(domain.PhaseUpdating, time.Now().UTC())); err != nil {
		return fmt.Errorf("mark updating: %w", err)
	}
	if err := u.applier.Apply(ctx); err != nil {
		u.logger.Error("applier failed, leaving interruption flag set",
			ports.String("run_id", flag.RunID),
			ports.Err(err))
		if errors.Is(err, domain.ErrApplierFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrApplierFailed, err)
	}

	// Restore mirrors the caller's skip request only: when a prior crash
	// forced the backup to be skipped, the pre-existing backup is exactly
	// what must be restored.
	if !skipBackup {
		if err := u.tracker.Mark(ctx, flag.Advance(domain.PhaseRestoring, time.Now().UTC())); err != nil {
			return fmt.Errorf("mark restoring: %w", err)
		}
		for _, name := range domain.ProtectedFiles {
			if err := u.store.Restore(ctx, name); err != nil {
				if errors.Is(err, domain.ErrNoBackup) {
					u.logger.Info("no backup to restore",
						ports.String("file", string(name)))
					continue
				}
				u.logger.Warn("restore failed",
					ports.String("file", string(name)),
					ports.Err(err))
			}
		}
	}

	if err := u.tracker.Mark(ctx, domain.Flag{}); err != nil {
		return fmt.Errorf("clear interruption flag: %w", err)
	}
	u.logger.Info("update complete", ports.String("run_id", flag.RunID))
	return nil
}
