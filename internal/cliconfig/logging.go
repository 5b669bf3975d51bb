package cliconfig

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger returns a console logger for use before configuration is loaded.
func Logger() zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger()
}

// BuildLogger returns the configured logger. When LogDir is set, output goes
// both to the console and to a size-rotated log file, so a headless station
// keeps an update history on disk.
func BuildLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var out io.Writer = console
	if cfg.LogDir != "" {
		rotated := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "stationup.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, rotated)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
