package domain

import "path/filepath"

// FileName is the logical name of a protected user file.
type FileName string

const (
	// FileConfig is the station configuration file.
	FileConfig FileName = "config"

	// FileMask is the calibration mask image.
	FileMask FileName = "mask"
)

// ProtectedFiles lists every file the updater preserves across an update,
// in the order backup and restore run.
var ProtectedFiles = []FileName{FileConfig, FileMask}

// ProtectedFile maps a logical name to its workspace location. The backup
// store mirrors the base name under the backup root; neither copy is ever
// mutated by the updater, only copied whole in one direction or the other.
type ProtectedFile struct {
	Name          FileName
	WorkspacePath string
}

// BackupName returns the file name the entry is mirrored under inside the
// backup root.
func (p ProtectedFile) BackupName() string {
	return filepath.Base(p.WorkspacePath)
}
