package cliconfig

import (
	"os"
	"strings"
)

// ApplyEnvConfig applies configuration from environment variables (STATIONUP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("workspace", os.Getenv("STATIONUP_WORKSPACE"), &cfg.WorkspaceDir)
	s.setString("backup-dir", os.Getenv("STATIONUP_BACKUP_DIR"), &cfg.BackupDir)
	s.setString("config-file", os.Getenv("STATIONUP_CONFIG_FILE"), &cfg.ConfigFile)
	s.setString("mask-file", os.Getenv("STATIONUP_MASK_FILE"), &cfg.MaskFile)
	s.setString("build-dir", os.Getenv("STATIONUP_BUILD_DIR"), &cfg.BuildDir)
	s.setString("update-cmd", os.Getenv("STATIONUP_UPDATE_CMD"), &cfg.UpdateCmd)
	s.setString("trigger-file", os.Getenv("STATIONUP_TRIGGER_FILE"), &cfg.TriggerFile)
	s.setString("log-dir", os.Getenv("STATIONUP_LOG_DIR"), &cfg.LogDir)
	s.setString("log-level", os.Getenv("STATIONUP_LOG_LEVEL"), &cfg.LogLevel)

	if v := os.Getenv("STATIONUP_UPDATE_ARGS"); v != "" {
		s.setStrings("update-arg", splitArgs(v), &cfg.UpdateArgs)
	}

	if err := s.setDuration("apply-timeout", os.Getenv("STATIONUP_APPLY_TIMEOUT"), &cfg.ApplyTimeout); err != nil {
		return err
	}

	s.setBoolFromString("skip-backup", os.Getenv("STATIONUP_SKIP_BACKUP"), &cfg.SkipBackup)
	s.setBoolFromString("watch", os.Getenv("STATIONUP_WATCH"), &cfg.Watch)

	return nil
}

// splitArgs splits a comma-separated argument list, dropping empty entries.
func splitArgs(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
