package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openmeteor/stationup/internal/domain"
)

func TestFlagFileReadAbsent(t *testing.T) {
	tracker := NewFlagFile(filepath.Join(t.TempDir(), "never-created"))

	flag := tracker.Read(context.Background())
	if flag.InProgress() {
		t.Fatal("absent flag file must decode to steady state")
	}
}

func TestFlagFileReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	tracker := NewFlagFile(dir)
	if err := os.WriteFile(tracker.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	flag := tracker.Read(context.Background())
	if flag.InProgress() {
		t.Fatal("unreadable flag file must decode to steady state")
	}
}

func TestFlagFileMarkThenRead(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	tracker := NewFlagFile(dir)

	now := time.Now().UTC()
	in := domain.Flag{Phase: domain.PhaseUpdating, RunID: "run-7", StartedAt: now, UpdatedAt: now}
	if err := tracker.Mark(ctx, in); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// A fresh tracker simulates the next invocation after a crash: nothing
	// in memory, only the file.
	out := NewFlagFile(dir).Read(ctx)
	if !out.InProgress() {
		t.Fatal("expected in-progress flag to survive")
	}
	if out.Phase != domain.PhaseUpdating || out.RunID != "run-7" {
		t.Fatalf("unexpected flag after reload: %+v", out)
	}
}

func TestFlagFileMarkClearsToSteadyState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	tracker := NewFlagFile(dir)

	if err := tracker.Mark(ctx, domain.Flag{Phase: domain.PhaseResetting, RunID: "run-1"}); err != nil {
		t.Fatalf("mark in progress: %v", err)
	}
	if err := tracker.Mark(ctx, domain.Flag{}); err != nil {
		t.Fatalf("mark idle: %v", err)
	}

	if flag := tracker.Read(ctx); flag.InProgress() {
		t.Fatalf("expected steady state after clearing, got %+v", flag)
	}
}

func TestFlagFileMarkLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	tracker := NewFlagFile(dir)
	if err := tracker.Mark(context.Background(), domain.Flag{Phase: domain.PhaseUpdating}); err != nil {
		t.Fatalf("mark: %v", err)
	}

	if _, err := os.Stat(tracker.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file must be renamed away after mark")
	}
}
