package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Warn("could not save tasks", "key", "tareas")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "could not save tasks", entry["msg"])
	assert.Equal(t, "tareas", entry["key"])
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("loud", "console", nil)
	assert.Error(t, err)

	_, err = New("info", "xml", nil)
	assert.Error(t, err)
}

func TestWithPrefixesRecorder(t *testing.T) {
	rec := &Recorder{}
	logger := With(rec, "component", "kv")

	logger.Info("opened", "backend", "memory")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"component", "kv", "backend", "memory"}, entries[0].Args)
	assert.Equal(t, 1, rec.Count("info"))
}
