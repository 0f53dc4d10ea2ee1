package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/smalltalk/internal/config"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(key string) (string, error) {
	return m[key], nil
}

func TestFilePathForDB(t *testing.T) {
	require.Equal(t, DefaultLogFilePath, FilePathForDB(""))

	dir := t.TempDir()
	got := FilePathForDB(filepath.Join(dir, "smalltalk.db"))
	require.Equal(t, filepath.Join(dir, DefaultLogFilePath), got)
}

func TestLevelFor(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, LevelFor(0, false))
	require.Equal(t, zerolog.DebugLevel, LevelFor(1, false))
	require.Equal(t, zerolog.TraceLevel, LevelFor(3, false))
	require.Equal(t, zerolog.WarnLevel, LevelFor(0, true))
	require.Equal(t, zerolog.WarnLevel, LevelFor(2, true))
}

func TestRotationFromSettings(t *testing.T) {
	require.Equal(t, DefaultRotation(), RotationFromSettings(nil))

	rot := RotationFromSettings(config.NewLoader(mapSettings{
		config.KeyLogMaxSizeMB:  "10",
		config.KeyLogMaxBackups: "-1",
		config.KeyLogMaxAgeDays: "0",
		config.KeyLogCompress:   "false",
	}))
	require.Equal(t, Rotation{
		MaxSizeMB:  10,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: 0,
		Compress:   false,
	}, rot)

	rot = RotationFromSettings(config.NewLoader(mapSettings{config.KeyLogMaxSizeMB: "0"}))
	require.Equal(t, DefaultMaxSizeMB, rot.MaxSizeMB)
}

func TestApply_WritesJSONFile(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", DefaultLogFilePath)
	Apply(zerolog.WarnLevel, DefaultRotation(), path)
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Info().Msg("filtered out")
	log.Warn().Str("key", "value").Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "file holds one JSON line: %s", data)
	require.Equal(t, "kept", entry["message"])
	require.Equal(t, "value", entry["key"])
}
