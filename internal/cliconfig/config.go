// Package cliconfig loads stationup configuration from defaults, a TOML
// file, STATIONUP_* environment variables, and command-line flags, in
// ascending order of precedence.
package cliconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config holds CLI configuration for stationup.
type Config struct {
	WorkspaceDir string
	BackupDir    string

	ConfigFile string
	MaskFile   string
	BuildDir   string

	UpdateCmd  string
	UpdateArgs []string

	SkipBackup bool

	Watch        bool
	TriggerFile  string
	ApplyTimeout time.Duration

	LogDir   string
	LogLevel string
}

// DefaultConfig returns a Config with default values. Paths that depend on
// the workspace are derived later in Validate.
func DefaultConfig() Config {
	return Config{
		UpdateCmd: "./scripts/update.sh",
		LogLevel:  "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace is required")
	}
	abs, err := filepath.Abs(c.WorkspaceDir)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	c.WorkspaceDir = abs

	// The backup root lives outside the workspace so it survives a
	// workspace reset.
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(filepath.Dir(c.WorkspaceDir), ".stationup")
	}
	if strings.HasPrefix(c.BackupDir+string(filepath.Separator), c.WorkspaceDir+string(filepath.Separator)) {
		return fmt.Errorf("backup-dir must lie outside the workspace")
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

	if c.UpdateCmd == "" {
		return fmt.Errorf("update-cmd is required")
	}
	if c.ApplyTimeout < 0 {
		return fmt.Errorf("apply timeout must not be negative")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
