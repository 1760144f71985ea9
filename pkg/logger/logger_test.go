package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestLevelAndWriter(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	t.Cleanup(func() {
		SetWriter(nil)
		Init(Options{})
	})

	Init(Options{Level: "warn"})
	assert.False(t, IsDebugEnabled())

	Info("hidden")
	Warn("shown", zap.String("phone", "+1111"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "+1111")

	Init(Options{Level: "debug"})
	assert.True(t, IsDebugEnabled())
	Named("mtproto").Debug("from library")
	assert.Contains(t, buf.String(), "mtproto")
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tgquery.log")
	SetWriter(&bytes.Buffer{})
	t.Cleanup(func() { SetWriter(nil) })

	Init(Options{Level: "info", File: path})
	Error("written to file", zap.String("phone", "+2222"))
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to file"`)
	assert.Contains(t, string(data), `"phone":"+2222"`)
}
