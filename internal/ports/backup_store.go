package ports

import (
	"context"

	"github.com/openmeteor/stationup/internal/domain"
)

// BackupStore preserves a small fixed set of named user files in a durable
// location outside the managed workspace. Files are only ever copied whole,
// workspace to store on Save and store to workspace on Restore.
type BackupStore interface {
	// Save copies the current workspace file for name into the store,
	// overwriting any prior entry of that name. The store directory is
	// created lazily on first use. Returns an error if the workspace
	// file is missing or the store is not writable; callers decide
	// whether that aborts anything (during an update run it must not).
	Save(ctx context.Context, name domain.FileName) error

	// Restore copies the store's entry for name back into the workspace,
	// overwriting whatever is there. Returns domain.ErrNoBackup if no
	// entry exists, which is expected on a first-ever run.
	Restore(ctx context.Context, name domain.FileName) error

	// Exists reports whether the store directory has been initialized.
	Exists() bool
}
