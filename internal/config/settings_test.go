package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestLoader(t *testing.T) {
	l := NewLoader(mapSettings{
		"int":      "7",
		"bad_int":  "seven",
		"bool":     "true",
		"not_bool": "yes",
		"str":      "@hourly",
		"dur":      "90s",
		"bad_dur":  "soon",
	})

	require.Equal(t, 7, l.Int("int", 1))
	require.Equal(t, 1, l.Int("bad_int", 1))
	require.Equal(t, 3, l.Int("missing", 3))

	require.True(t, l.Bool("bool", false))
	require.False(t, l.Bool("not_bool", true))
	require.True(t, l.Bool("missing", true))

	require.Equal(t, "@hourly", l.String("str", "@daily"))
	require.Equal(t, "@daily", l.String("missing", "@daily"))

	require.Equal(t, 90*time.Second, l.Duration("dur", time.Second))
	require.Equal(t, time.Second, l.Duration("bad_dur", time.Second))
}
