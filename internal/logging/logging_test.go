package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/api/internal/config"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level    string
		expected log.Level
	}{
		{"debug", log.DebugLevel},
		{"WARN", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"nonsense", log.InfoLevel},
		{"", log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := New(config.LogConfig{Level: tt.level})
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.WithField("task_id", "abc").Info("task toggled")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "task toggled", entry["msg"])
	assert.Equal(t, "abc", entry["task_id"])
}

func TestNew_TextFormatIsDefault(t *testing.T) {
	logger := New(config.LogConfig{})
	_, ok := logger.Formatter.(*log.TextFormatter)
	assert.True(t, ok)
}
