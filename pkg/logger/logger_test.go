package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureGlobal redirects the global logger for the duration of a test
func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer

	origOut := L.Logger.Out
	origFormatter := L.Logger.Formatter
	origLevel := L.Logger.Level
	t.Cleanup(func() {
		L.Logger.SetOutput(origOut)
		L.Logger.Formatter = origFormatter
		L.Logger.SetLevel(origLevel)
	})

	SetLogOutput(&buf)
	return &buf
}

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger_FallsBackToGlobal(t *testing.T) {
	entry := G(context.Background())
	require.NotNil(t, entry)
	assert.Equal(t, L.Logger, entry.Logger)
}

func TestWithLogger(t *testing.T) {
	custom := logrus.NewEntry(logrus.New()).WithField("test", "value")
	ctx := WithLogger(context.Background(), custom)

	entry := G(ctx)
	assert.Equal(t, "value", entry.Data["test"])
	assert.Equal(t, custom.Logger, entry.Logger)
}

func TestWithFields_Accumulate(t *testing.T) {
	ctx := WithFields(context.Background(), logrus.Fields{"kind": "agent"})
	ctx = WithFields(ctx, logrus.Fields{"name": "reviewer"})

	entry := G(ctx)
	assert.Equal(t, "agent", entry.Data["kind"])
	assert.Equal(t, "reviewer", entry.Data["name"])
}

func TestConfigure_JSON(t *testing.T) {
	buf := captureGlobal(t)

	require.NoError(t, Configure("debug", "json"))
	G(context.Background()).WithField("path", "/tmp/x").Debug("wrote file")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "wrote file", line["message"])
	assert.Equal(t, "debug", line["logLevel"])
	assert.Equal(t, "/tmp/x", line["path"])
	assert.Contains(t, line, "timestamp")
}

func TestConfigure_Text(t *testing.T) {
	buf := captureGlobal(t)

	require.NoError(t, Configure("info", "text"))
	G(context.Background()).Debug("hidden")
	G(context.Background()).Info("shown")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.Contains(t, out, "shown")
}

func TestConfigure_InvalidLevel(t *testing.T) {
	captureGlobal(t)
	assert.Error(t, Configure("loud", "text"))
}
