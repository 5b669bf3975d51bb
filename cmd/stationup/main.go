package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	adapterlog "github.com/openmeteor/stationup/internal/adapters/log"
	"github.com/openmeteor/stationup/internal/cliconfig"
	"github.com/openmeteor/stationup/pkg/updater"
)

const longHelp = `
Update the station's capture software in place, safely.

stationup pulls new source code and rebuilds dependencies through the
configured update command, while preserving the station configuration file
and the calibration mask image across the update. A durable interruption
flag makes the routine safe to re-run after a crash or power loss: an
interrupted run is detected on the next attempt and the existing backup is
trusted instead of being overwritten.

Configure via file ($HOME/.stationup/config.toml), STATIONUP_* environment
variables, or flags.
`

var exampleUsage = strings.TrimSpace(`
  stationup --workspace /home/station/source
  stationup --workspace /home/station/source --skip-backup
  stationup --workspace /home/station/source --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "stationup",
		Short:   "Crash-safe self-update for the station capture software",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.stationup/config.toml),
			// then apply env and flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables override file config but are overridden
			// by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log = cliconfig.BuildLogger(cfg)
			log.Info().Interface("config", cfg).Msg("configuration")

			u, err := updater.New(updater.Config{
				WorkspaceDir: cfg.WorkspaceDir,
				BackupDir:    cfg.BackupDir,
				ConfigFile:   cfg.ConfigFile,
				MaskFile:     cfg.MaskFile,
				BuildDir:     cfg.BuildDir,
				UpdateCmd:    cfg.UpdateCmd,
				UpdateArgs:   cfg.UpdateArgs,
				SkipBackup:   cfg.SkipBackup,
				TriggerFile:  cfg.TriggerFile,
			}, updater.WithLogger(adapterlog.NewZerologAdapter(log)))
			if err != nil {
				return fmt.Errorf("create updater: %w", err)
			}

			// Stop cleanly on SIGINT/SIGTERM; a kill mid-run is what the
			// interruption flag exists for.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Watch {
				err := u.Watch(ctx)
				if err != nil && ctx.Err() != nil {
					log.Info().Msg("received signal, stopping")
					return nil
				}
				return err
			}

			runCtx := ctx
			if cfg.ApplyTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, cfg.ApplyTimeout)
				defer cancel()
			}
			return u.Run(runCtx)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.stationup/config.toml)")
	root.Flags().StringVar(&cfg.WorkspaceDir, "workspace", "", "managed source tree that gets updated")
	root.Flags().StringVar(&cfg.BackupDir, "backup-dir", cfg.BackupDir, "durable directory for protected files and the interruption flag (default: .stationup next to the workspace)")
	root.Flags().StringVar(&cfg.ConfigFile, "config-file", cfg.ConfigFile, "station config file to preserve (default: <workspace>/.config)")
	root.Flags().StringVar(&cfg.MaskFile, "mask-file", cfg.MaskFile, "calibration mask image to preserve (default: <workspace>/mask.bmp)")
	root.Flags().StringVar(&cfg.BuildDir, "build-dir", cfg.BuildDir, "build output directory removed each run (default: <workspace>/build)")

	root.Flags().StringVar(&cfg.UpdateCmd, "update-cmd", cfg.UpdateCmd, "command performing the source/dependency refresh")
	root.Flags().StringSliceVar(&cfg.UpdateArgs, "update-arg", cfg.UpdateArgs, "argument for the update command (repeatable)")
	root.Flags().DurationVar(&cfg.ApplyTimeout, "apply-timeout", cfg.ApplyTimeout, "abort the run if it exceeds this duration (0 = no limit)")

	root.Flags().BoolVar(&cfg.SkipBackup, "skip-backup", cfg.SkipBackup, "skip backup and restore of protected files")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "run unattended, updating whenever the trigger file appears")
	root.Flags().StringVar(&cfg.TriggerFile, "trigger-file", cfg.TriggerFile, "trigger file watched in --watch mode (default: <backup-dir>/update_requested)")

	root.Flags().StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory for rotated log files (default: console only)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("stationup")
		os.Exit(1)
	}
}
