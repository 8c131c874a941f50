package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("should be filtered")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("user", "alice").WithFields(map[string]interface{}{"op": "delete"}).Info("done")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "alice", entry["user"])
	assert.Equal(t, "delete", entry["op"])
	assert.Equal(t, "done", entry["msg"])
}

func TestLoggerScrubsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	err := fmt.Errorf("ping postgres://adm:hunter2@db:5432/guac failed")
	logger.WithError(err).Error("connect")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "postgres://adm:****@db:5432/guac")
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
}
