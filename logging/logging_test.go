package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNew_FileSinkHasNoColor(t *testing.T) {
	var file bytes.Buffer
	l, err := New(Options{Level: "debug", File: &file})
	require.NoError(t, err)

	l.Debug().Str("component", "test").Msg("hello")
	out := file.String()
	assert.Contains(t, out, "logging set up")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "component=test")
	assert.NotContains(t, out, "\x1b[")
}

func TestNew_LevelFilters(t *testing.T) {
	var file bytes.Buffer
	l, err := New(Options{Level: "warn", File: &file})
	require.NoError(t, err)

	l.Info().Msg("quiet")
	l.Warn().Msg("loud")
	assert.NotContains(t, file.String(), "quiet")
	assert.Contains(t, file.String(), "loud")
}

func TestNew_NoSinksDiscards(t *testing.T) {
	l, err := New(Options{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestSampled_LimitsBurst(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	s := Sampled(base)
	for i := 0; i < 50; i++ {
		s.Error().Int("i", i).Msg("tick failed")
	}
	lines := strings.Count(buf.String(), "\n")
	assert.GreaterOrEqual(t, lines, 5)
	assert.Less(t, lines, 50)
	assert.Contains(t, buf.String(), `"sampled":true`)
}

func TestFilePath(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)
	got := FilePath("logs", "vi-rally", start)
	assert.Equal(t, filepath.Join("logs", "vi-rally.20260212_213836.log"), got)
}
