package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	adapterfs "github.com/openmeteor/stationup/internal/adapters/fs"
	adapterlog "github.com/openmeteor/stationup/internal/adapters/log"
	"github.com/openmeteor/stationup/internal/domain"
)

// fakeApplier simulates the external update step. Returning an error is
// observationally the same as a crash mid-update: the flag stays set and no
// restore happens.
type fakeApplier struct {
	calls int
	fn    func(ctx context.Context) error
}

func (a *fakeApplier) Apply(ctx context.Context) error {
	a.calls++
	if a.fn != nil {
		return a.fn(ctx)
	}
	return nil
}

type fixture struct {
	workspace string
	backupDir string
	buildDir  string
	store     *adapterfs.BackupDir
	tracker   *adapterfs.FlagFile
	applier   *fakeApplier
	updater   *Updater
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	workspace := t.TempDir()
	backupDir := filepath.Join(t.TempDir(), "backup")

	files := []domain.ProtectedFile{
		{Name: domain.FileConfig, WorkspacePath: filepath.Join(workspace, ".config")},
		{Name: domain.FileMask, WorkspacePath: filepath.Join(workspace, "mask.bmp")},
	}

	f := &fixture{
		workspace: workspace,
		backupDir: backupDir,
		buildDir:  filepath.Join(workspace, "build"),
		store:     adapterfs.NewBackupDir(backupDir, files),
		tracker:   adapterfs.NewFlagFile(backupDir),
		applier:   &fakeApplier{},
	}
	f.updater = NewUpdater(UpdaterConfig{
		BuildDir: f.buildDir,
		LockPath: filepath.Join(backupDir, "update.lock"),
	}, f.store, f.tracker, f.applier, adapterlog.NewNoopLogger())
	return f
}

func (f *fixture) writeWorkspace(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.workspace, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func (f *fixture) readWorkspace(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.workspace, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func (f *fixture) readBackup(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.backupDir, name))
	if err != nil {
		t.Fatalf("read backup %s: %v", name, err)
	}
	return string(b)
}

func TestRunFirstEver(t *testing.T) {
	// No backup root, no protected files in the workspace yet: saves fail
	// but are tolerated, restore no-ops, the run still succeeds.
	f := newFixture(t)
	ctx := context.Background()

	if err := f.updater.Run(ctx, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.applier.calls != 1 {
		t.Fatalf("expected one applier call, got %d", f.applier.calls)
	}
	if f.tracker.Read(ctx).InProgress() {
		t.Fatal("flag must be clear after a successful run")
	}
}

func TestRunBacksUpAndRestores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.writeWorkspace(t, ".config", "station=HR0001")
	f.writeWorkspace(t, "mask.bmp", "MASKDATA")

	// The applier clobbers the workspace copies, as a real code refresh
	// would when tracked defaults overwrite local edits.
	f.applier.fn = func(context.Context) error {
		f.writeWorkspace(t, ".config", "station=DEFAULT")
		f.writeWorkspace(t, "mask.bmp", "BLANK")
		return nil
	}

	if err := f.updater.Run(ctx, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := f.readWorkspace(t, ".config"); got != "station=HR0001" {
		t.Fatalf("config not restored, got %q", got)
	}
	if got := f.readWorkspace(t, "mask.bmp"); got != "MASKDATA" {
		t.Fatalf("mask not restored, got %q", got)
	}
	if f.tracker.Read(ctx).InProgress() {
		t.Fatal("flag must be clear after a successful run")
	}
}

func TestRunApplierFailureLeavesFlagAndBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.writeWorkspace(t, ".config", "station=HR0001")
	f.writeWorkspace(t, "mask.bmp", "MASKDATA")
	f.applier.fn = func(context.Context) error {
		return errors.New("pip install exploded")
	}

	err := f.updater.Run(ctx, false)
	if !errors.Is(err, domain.ErrApplierFailed) {
		t.Fatalf("expected ErrApplierFailed, got %v", err)
	}
	if !f.tracker.Read(ctx).InProgress() {
		t.Fatal("flag must stay set after an applier failure")
	}
	if got := f.readBackup(t, ".config"); got != "station=HR0001" {
		t.Fatalf("backup must hold the pre-update config, got %q", got)
	}
}

func TestRunAfterCrashSkipsBackupTrustsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A prior completed backup plus an interruption flag: the crashed run
	// may have left the workspace partially reset.
	f.writeWorkspace(t, ".config", "station=HR0001")
	f.writeWorkspace(t, "mask.bmp", "MASKDATA")
	if err := f.store.Save(ctx, domain.FileConfig); err != nil {
		t.Fatalf("seed backup: %v", err)
	}
	if err := f.store.Save(ctx, domain.FileMask); err != nil {
		t.Fatalf("seed backup: %v", err)
	}
	if err := f.tracker.Mark(ctx, domain.Flag{Phase: domain.PhaseUpdating, RunID: "crashed"}); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	f.writeWorkspace(t, ".config", "station=PARTIAL-RESET")

	if err := f.updater.Run(ctx, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := f.readBackup(t, ".config"); got != "station=HR0001" {
		t.Fatalf("backup must not be overwritten by the corrupted workspace, got %q", got)
	}
	if got := f.readWorkspace(t, ".config"); got != "station=HR0001" {
		t.Fatalf("workspace must be restored from the pre-crash backup, got %q", got)
	}
	if f.tracker.Read(ctx).InProgress() {
		t.Fatal("flag must be clear after the recovery run succeeds")
	}
}

func TestRunRepeatedCrashesNeverCorruptBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.writeWorkspace(t, ".config", "station=GOOD")
	f.writeWorkspace(t, "mask.bmp", "MASKDATA")

	boom := errors.New("power loss")
	f.applier.fn = func(context.Context) error {
		// Every interrupted attempt degrades the workspace further.
		f.writeWorkspace(t, ".config", "station=GARBAGE")
		return boom
	}

	for i := 0; i < 4; i++ {
		if err := f.updater.Run(ctx, false); !errors.Is(err, domain.ErrApplierFailed) {
			t.Fatalf("attempt %d: expected ErrApplierFailed, got %v", i, err)
		}
		if got := f.readBackup(t, ".config"); got != "station=GOOD" {
			t.Fatalf("attempt %d: backup corrupted to %q", i, got)
		}
	}

	// One clean run recovers the original config and clears the flag.
	f.applier.fn = nil
	if err := f.updater.Run(ctx, false); err != nil {
		t.Fatalf("recovery run: %v", err)
	}
	if got := f.readWorkspace(t, ".config"); got != "station=GOOD" {
		t.Fatalf("expected recovery to restore config, got %q", got)
	}
	if f.tracker.Read(ctx).InProgress() {
		t.Fatal("flag must be clear after recovery")
	}
}

func TestRunSkipBackupRequested(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.writeWorkspace(t, ".config", "station=HR0001")
	f.writeWorkspace(t, "mask.bmp", "MASKDATA")
	f.applier.fn = func(context.Context) error {
		f.writeWorkspace(t, ".config", "station=DEFAULT")
		return nil
	}

	if err := f.updater.Run(ctx, true); err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(f.backupDir, ".config")); !os.IsNotExist(err) {
		t.Fatal("skip-backup run must not write backup entries")
	}
	// Restore is skipped symmetrically: the applier's version stands.
	if got := f.readWorkspace(t, ".config"); got != "station=DEFAULT" {
		t.Fatalf("skip-backup run must not restore, got %q", got)
	}
	if f.tracker.Read(ctx).InProgress() {
		t.Fatal("flag must be clear after a successful run")
	}
}

func TestRunResetsBuildDir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(f.buildDir, "temp.linux-armv7l"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.buildDir, "temp.linux-armv7l", "ext.so"), []byte("obj"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := f.updater.Run(ctx, true); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(f.buildDir); !os.IsNotExist(err) {
		t.Fatal("build directory must be removed")
	}

	// Absence on the next run is not an error.
	if err := f.updater.Run(ctx, true); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	f := newFixture(t)

	lock := filepath.Join(f.backupDir, "update.lock")
	if err := os.MkdirAll(f.backupDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// A live PID in the lock file means another run is in flight; our own
	// PID is a process that is certainly alive.
	if err := os.WriteFile(lock, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	err := f.updater.Run(context.Background(), false)
	if !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if f.applier.calls != 0 {
		t.Fatal("locked run must not reach the applier")
	}
}

func TestRunReclaimsStaleLock(t *testing.T) {
	f := newFixture(t)

	lock := filepath.Join(f.backupDir, "update.lock")
	if err := os.MkdirAll(f.backupDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(lock, []byte("-1\n"), 0o600); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	if err := f.updater.Run(context.Background(), true); err != nil {
		t.Fatalf("run with stale lock: %v", err)
	}
	if _, err := os.Stat(lock); !os.IsNotExist(err) {
		t.Fatal("lock must be released after the run")
	}
}
