package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/openmeteor/stationup/internal/domain"
)

const flagFileName = "update_state.json"

// FlagFile implements ports.Tracker using a JSON file inside the backup
// root. The file is the sole crash-recovery signal, so every write is
// flushed through to storage before Mark returns.
type FlagFile struct {
	dir string
}

// NewFlagFile creates a FlagFile persisting into the given directory.
func NewFlagFile(dir string) *FlagFile {
	return &FlagFile{dir: dir}
}

// Read retrieves the last recorded flag from disk.
// A missing or unreadable flag file decodes to the zero flag: absence is
// steady state on a first-ever run, never an error.
func (r *FlagFile) Read(ctx context.Context) domain.Flag {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		return domain.Flag{}
	}

	var flag domain.Flag
	if err := json.Unmarshal(data, &flag); err != nil {
		return domain.Flag{}
	}
	return flag
}

// Mark persists the flag durably.
// Uses atomic write (write to temp file, fsync, then rename) so a crash
// mid-write cannot corrupt the previous value, and fsyncs the directory so
// the rename itself survives power loss.
func (r *FlagFile) Mark(ctx context.Context, flag domain.Flag) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(flag, "", "  ")
	if err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	return syncDir(r.dir)
}

// Path returns the full path to the flag file.
func (r *FlagFile) Path() string {
	return filepath.Join(r.dir, flagFileName)
}

// syncDir flushes a directory entry so a completed rename is durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	// Directory fsync is unsupported on some filesystems; the rename is
	// still atomic there, so tolerate the failure.
	if err := d.Sync(); err != nil {
		d.Close()
		return nil
	}
	return d.Close()
}
