package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIHandlerAddsMetadata(t *testing.T) {
	t.Setenv("GITHUB_SHA", "abc123")
	t.Setenv("GITHUB_REF_NAME", "main")

	buf := &TestLogBuffer{}
	log := slog.New(NewCIHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}))

	log.With(slog.String("component", "study_service")).Debug("queue built", slog.Int("size", 3))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "abc123", entry["ci_commit"])
	assert.Equal(t, "main", entry["ci_branch"])
	assert.Equal(t, "study_service", entry["component"])
	assert.EqualValues(t, 3, entry["size"])
	assert.Contains(t, entry, "source_file")
	assert.Contains(t, entry, "timestamp_nano")
}

func TestCIHandlerRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &TestLogBuffer{}
	log := slog.New(NewCIHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("dropped")
	log.WithGroup("g").Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
