package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/saltyorg/smalltalk/internal/config"
)

const (
	DefaultLogFilePath = "smalltalk.log"
	DefaultMaxSizeMB   = 50
	DefaultMaxBackups  = 5
	DefaultMaxAgeDays  = 30
	DefaultCompress    = true

	consoleTimeFormat = "2006-01-02 15:04:05"
)

// Rotation holds the lumberjack knobs for the log file
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation returns the rotation used when no settings are stored
func DefaultRotation() Rotation {
	return Rotation{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
}

// RotationFromSettings reads rotation from the settings table. Out of range
// values keep their defaults. A nil loader yields DefaultRotation.
func RotationFromSettings(loader *config.Loader) Rotation {
	rot := DefaultRotation()
	if loader == nil {
		return rot
	}

	if val := loader.Int(config.KeyLogMaxSizeMB, DefaultMaxSizeMB); val > 0 {
		rot.MaxSizeMB = val
	}
	if val := loader.Int(config.KeyLogMaxBackups, DefaultMaxBackups); val >= 0 {
		rot.MaxBackups = val
	}
	if val := loader.Int(config.KeyLogMaxAgeDays, DefaultMaxAgeDays); val >= 0 {
		rot.MaxAgeDays = val
	}
	rot.Compress = loader.Bool(config.KeyLogCompress, DefaultCompress)
	return rot
}

// LevelFor maps the CLI verbosity count to a level. quiet wins over -v.
func LevelFor(verbosity int, quiet bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.WarnLevel
	case verbosity <= 0:
		return zerolog.InfoLevel
	case verbosity == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Apply sets the global level and installs a colored console writer plus a
// rotating JSON log file at logFilePath (DefaultLogFilePath when empty).
// If the file's directory cannot be created only the console is used.
func Apply(level zerolog.Level, rotation Rotation, logFilePath string) {
	zerolog.SetGlobalLevel(level)

	if logFilePath == "" {
		logFilePath = DefaultLogFilePath
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}

	if err := ensureLogDir(logFilePath); err != nil {
		log.Logger = newLogger(console)
		log.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return
	}

	log.Logger = newLogger(zerolog.MultiLevelWriter(console, newFileWriter(logFilePath, rotation)))
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func newFileWriter(path string, rotation Rotation) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}
}

// FilePathForDB returns a log file path that lives alongside the database file.
func FilePathForDB(dbPath string) string {
	if dbPath == "" {
		return DefaultLogFilePath
	}
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return filepath.Join(filepath.Dir(dbPath), DefaultLogFilePath)
	}
	return filepath.Join(filepath.Dir(absDBPath), DefaultLogFilePath)
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
