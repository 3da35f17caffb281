package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetupWritesConsoleAndFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "jira.log")

	closer, err := Setup(Options{Level: "info", File: path, Console: &console})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("guild", "G1").Msg("strike recorded")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "strike recorded")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"guild":"G1"`)
}

func TestSetupRejectsBadLevel(t *testing.T) {
	_, err := Setup(Options{Level: "nope"})
	assert.Error(t, err)
}
