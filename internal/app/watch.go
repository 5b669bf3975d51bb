package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/openmeteor/stationup/internal/ports"
)

// WatchConfig holds configuration for the unattended update path.
type WatchConfig struct {
	// TriggerPath is the file whose appearance requests an update. The
	// capture scheduler drops it when the station is idle between nights.
	TriggerPath string

	// SkipBackup is passed through to every triggered run.
	SkipBackup bool

	// DebounceDelay is the delay to wait after a trigger change before
	// running, so a slow writer does not fire the update twice.
	// Default: 500 milliseconds.
	DebounceDelay time.Duration

	// RetryInitialInterval is the first delay between retries of a failed
	// run. Default: 30 seconds.
	RetryInitialInterval time.Duration

	// RetryMaxElapsed bounds the total time spent retrying one trigger
	// before rearming and waiting for the next. Default: 1 hour.
	RetryMaxElapsed time.Duration
}

// DefaultWatchConfig returns a WatchConfig with sensible defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay:        500 * time.Millisecond,
		RetryInitialInterval: 30 * time.Second,
		RetryMaxElapsed:      time.Hour,
	}
}

// Watcher waits for a trigger file and runs updates unattended. A failed
// run is retried with exponential backoff; every retry is a full run and
// therefore follows the same interruption-flag policy as an attended one.
type Watcher struct {
	cfg     WatchConfig
	updater *Updater
	logger  ports.Logger
}

// NewWatcher creates a Watcher driving the given Updater.
func NewWatcher(cfg WatchConfig, updater *Updater, logger ports.Logger) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 30 * time.Second
	}
	if cfg.RetryMaxElapsed <= 0 {
		cfg.RetryMaxElapsed = time.Hour
	}
	return &Watcher{cfg: cfg, updater: updater, logger: logger}
}

// Watch blocks until ctx is done, running an update each time the trigger
// file appears or changes. A trigger already present at startup fires
// immediately.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.cfg.TriggerPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		return err
	}

	w.logger.Info("watching for update trigger",
		ports.String("trigger", w.cfg.TriggerPath))

	debounce := time.NewTimer(w.cfg.DebounceDelay)
	if _, err := os.Stat(w.cfg.TriggerPath); err != nil {
		// No trigger yet; arm only on the first event.
		if !debounce.Stop() {
			<-debounce.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != w.cfg.TriggerPath {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.cfg.DebounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("trigger watcher error", ports.Err(err))

		case <-debounce.C:
			w.runTriggered(ctx)
		}
	}
}

// runTriggered consumes the trigger file and runs the update, retrying a
// failed run with exponential backoff until it succeeds or the retry window
// closes.
func (w *Watcher) runTriggered(ctx context.Context) {
	if err := os.Remove(w.cfg.TriggerPath); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("trigger file removal failed", ports.Err(err))
	}
	w.logger.Info("update trigger received")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.cfg.RetryInitialInterval
	policy.MaxElapsedTime = w.cfg.RetryMaxElapsed

	attempt := 0
	op := func() error {
		attempt++
		err := w.updater.Run(ctx, w.cfg.SkipBackup)
		if err != nil {
			w.logger.Warn("triggered update failed",
				ports.Int("attempt", attempt),
				ports.Err(err))
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		w.logger.Error("giving up on triggered update until next trigger",
			ports.Int("attempts", attempt),
			ports.Err(err))
		return
	}
	w.logger.Info("triggered update complete", ports.Int("attempts", attempt))
}
