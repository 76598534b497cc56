package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter(buf *bytes.Buffer) Logger {
	logrusLogger := logrus.New()
	logrusLogger.SetOutput(buf)
	logrusLogger.SetFormatter(&logrus.JSONFormatter{})
	logrusLogger.SetLevel(logrus.DebugLevel)
	return NewLogrusAdapter(logrus.NewEntry(logrusLogger))
}

func TestLogrusAdapter_Creation(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())

	adapter := NewLogrusAdapter(entry)
	require.NotNil(t, adapter)

	logrusAdapter, ok := adapter.(*LogrusAdapter)
	require.True(t, ok)
	assert.Equal(t, entry, logrusAdapter.entry)
}

func TestLogrusAdapter_WithFields(t *testing.T) {
	var buf bytes.Buffer
	adapter := newBufferedAdapter(&buf)

	adapter.WithFields(map[string]interface{}{
		"role":        "encode",
		"component":   "selector",
		"frame_count": 42,
	}).Info("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "encode", entry["role"])
	assert.Equal(t, "selector", entry["component"])
	assert.Equal(t, float64(42), entry["frame_count"])
	assert.Equal(t, "test message", entry["msg"])
}

func TestLogrusAdapter_WithError(t *testing.T) {
	var buf bytes.Buffer
	adapter := newBufferedAdapter(&buf)

	adapter.WithError(errors.New("scan failed")).Error("indexing")

	assert.Contains(t, buf.String(), "scan failed")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestLogrusAdapter_LogLevels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l Logger)
		level string
	}{
		{"debug", func(l Logger) { l.Debug("m") }, "debug"},
		{"info", func(l Logger) { l.Info("m") }, "info"},
		{"warn", func(l Logger) { l.Warn("m") }, "warning"},
		{"error", func(l Logger) { l.Error("m") }, "error"},
		{"debugf", func(l Logger) { l.Debugf("m %d", 1) }, "debug"},
		{"infof", func(l Logger) { l.Infof("m %d", 1) }, "info"},
		{"warnf", func(l Logger) { l.Warnf("m %d", 1) }, "warning"},
		{"errorf", func(l Logger) { l.Errorf("m %d", 1) }, "error"},
		{"log", func(l Logger) { l.Log(logrus.InfoLevel, "m") }, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newBufferedAdapter(&buf))

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
		})
	}
}

func TestLogrusAdapter_ImmutableChaining(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferedAdapter(&buf)

	_ = base.WithField("stage", "select")
	base.Info("plain")

	assert.NotContains(t, buf.String(), "stage")
}

func TestNullLogger(t *testing.T) {
	l := NewNullLogger()

	assert.Equal(t, l, l.WithField("a", 1))
	assert.Equal(t, l, l.WithFields(map[string]interface{}{"a": 1}))
	assert.Equal(t, l, l.WithError(errors.New("x")))
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
		l.Log(logrus.InfoLevel, "x")
		l.Debugf("%s", "x")
		l.Infof("%s", "x")
		l.Warnf("%s", "x")
		l.Errorf("%s", "x")
	})
}
