package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WorkspaceDir string   `toml:"workspace"`
	BackupDir    string   `toml:"backup_dir"`
	ConfigFile   string   `toml:"config_file"`
	MaskFile     string   `toml:"mask_file"`
	BuildDir     string   `toml:"build_dir"`
	UpdateCmd    string   `toml:"update_cmd"`
	UpdateArgs   []string `toml:"update_args"`
	SkipBackup   *bool    `toml:"skip_backup"`
	Watch        *bool    `toml:"watch"`
	TriggerFile  string   `toml:"trigger_file"`
	ApplyTimeout string   `toml:"apply_timeout"`
	LogDir       string   `toml:"log_dir"`
	LogLevel     string   `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.stationup/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".stationup", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("workspace", fc.WorkspaceDir, &cfg.WorkspaceDir)
	s.setString("backup-dir", fc.BackupDir, &cfg.BackupDir)
	s.setString("config-file", fc.ConfigFile, &cfg.ConfigFile)
	s.setString("mask-file", fc.MaskFile, &cfg.MaskFile)
	s.setString("build-dir", fc.BuildDir, &cfg.BuildDir)
	s.setString("update-cmd", fc.UpdateCmd, &cfg.UpdateCmd)
	s.setStrings("update-arg", fc.UpdateArgs, &cfg.UpdateArgs)
	s.setString("trigger-file", fc.TriggerFile, &cfg.TriggerFile)
	s.setString("log-dir", fc.LogDir, &cfg.LogDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setBool("skip-backup", fc.SkipBackup, &cfg.SkipBackup)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	if err := s.setDuration("apply-timeout", fc.ApplyTimeout, &cfg.ApplyTimeout); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
