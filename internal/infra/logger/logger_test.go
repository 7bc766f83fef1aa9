package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestInit_Writer(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Config{Level: "info", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	zlog.Debug().Msg("hidden")
	zlog.Info().Msgf("playback: now playing: title=%s", "Swing Cheese")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"playback: now playing: title=Swing Cheese"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kiosk.log")
	closer, err := Init(Config{Output: path, Level: "debug"})
	require.NoError(t, err)

	zlog.Debug().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, string(data), `"caller":"logger/logger_test.go:`)
}

func TestShortCaller(t *testing.T) {
	file := filepath.Join("a", "b", "c", "d.go")
	assert.Equal(t, filepath.Join("c", "d.go")+":12", shortCaller(0, file, 12))
	assert.Equal(t, "d.go:3", shortCaller(0, "d.go", 3))
}
