package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openmeteor/stationup/internal/domain"
)

// BackupDir implements ports.BackupStore on a directory outside the managed
// workspace. Each protected file is mirrored under its base name; entries
// are overwritten on every backup and never deleted.
type BackupDir struct {
	root  string
	files map[domain.FileName]domain.ProtectedFile
}

// NewBackupDir creates a BackupDir rooted at root, protecting the given
// files. The directory itself is created lazily on first Save.
func NewBackupDir(root string, files []domain.ProtectedFile) *BackupDir {
	m := make(map[domain.FileName]domain.ProtectedFile, len(files))
	for _, f := range files {
		m[f.Name] = f
	}
	return &BackupDir{root: root, files: m}
}

// Save copies the workspace file for name into the backup root, overwriting
// any prior entry of that name.
func (b *BackupDir) Save(ctx context.Context, name domain.FileName) error {
	entry, ok := b.files[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFile, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(b.root, 0o700); err != nil {
		return fmt.Errorf("create backup root: %w", err)
	}

	dst := filepath.Join(b.root, entry.BackupName())
	if err := copyFile(entry.WorkspacePath, dst); err != nil {
		return fmt.Errorf("back up %s: %w", name, err)
	}
	return nil
}

// Restore copies the backup entry for name into the workspace, overwriting
// whatever is currently there. Returns domain.ErrNoBackup if the entry has
// never been saved.
func (b *BackupDir) Restore(ctx context.Context, name domain.FileName) error {
	entry, ok := b.files[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFile, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	src := filepath.Join(b.root, entry.BackupName())
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", domain.ErrNoBackup, name)
	}

	if err := copyFile(src, entry.WorkspacePath); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the backup root has been initialized.
func (b *BackupDir) Exists() bool {
	info, err := os.Stat(b.root)
	return err == nil && info.IsDir()
}

// Root returns the backup root directory.
func (b *BackupDir) Root() string {
	return b.root
}

// copyFile copies src to dst as a whole file and flushes the result to
// storage. The destination mode follows the source.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
