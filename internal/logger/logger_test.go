package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{"", false, zerolog.ErrorLevel},
		{"", true, zerolog.InfoLevel},
		{"debug", false, zerolog.DebugLevel},
		{" WARN ", true, zerolog.WarnLevel},
		{"error", true, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.level, tt.verbose)
		require.NoError(t, err, "level %q", tt.level)
		assert.Equal(t, tt.want, got, "level %q", tt.level)
	}

	_, err := ParseLevel("chatty", false)
	assert.Error(t, err)
}

func TestNew_FiltersByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(buf, zerolog.ErrorLevel)

	log.Info().Msg("hidden")
	log.Error().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithRun(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithRun(NewJSON(buf, zerolog.InfoLevel), "run-123")
	log.Info().Str("file", "a.csv").Msg("processed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, "a.csv", line["file"])
	assert.Equal(t, "processed", line["message"])
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewJSON(buf, zerolog.InfoLevel))

	log := FromContext(ctx)
	log.Info().Msg("test")
	assert.NotZero(t, buf.Len())
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}
