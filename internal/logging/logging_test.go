package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSkipBlankDropsEmptyMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(SkipBlank(core))

	log.Info("")
	log.Info("   \t\n")
	log.Info("player joined", zap.String("id", "abc"))
	log.With(zap.String("component", "x")).Warn(" ")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "player joined", logs.All()[0].Message)
}

func TestNewWritesStdoutAndDailyFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	day := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	now := day

	log, closeFn := New(Options{Dir: dir, Level: "info", Stdout: &out, Now: func() time.Time { return now }})
	log.Info("first day")
	log.Debug("hidden")

	now = day.Add(24 * time.Hour)
	log.Info("second day")
	closeFn()

	assert.Contains(t, out.String(), "first day")
	assert.Contains(t, out.String(), "second day")
	assert.NotContains(t, out.String(), "hidden")

	first, err := os.ReadFile(filepath.Join(dir, "log-2024-02-03.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "first day")
	assert.NotContains(t, string(first), "second day")

	second, err := os.ReadFile(filepath.Join(dir, FileName(now)))
	require.NoError(t, err)
	assert.Contains(t, string(second), "second day")
}

func TestUnwritableDirFallsBackToStdout(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	var out bytes.Buffer
	log, closeFn := New(Options{Dir: filepath.Join(blocker, "logs"), Stdout: &out})
	defer closeFn()

	assert.NotPanics(t, func() { log.Info("still logging") })
	assert.Contains(t, out.String(), "log file disabled")
	assert.Contains(t, out.String(), "still logging")
}

func TestJSONFormat(t *testing.T) {
	var out bytes.Buffer
	log, closeFn := New(Options{Format: "json", Stdout: &out})
	defer closeFn()
	log.Info("hello", zap.Int("n", 1))
	assert.Contains(t, out.String(), `"message":"hello"`)
	assert.Contains(t, out.String(), `"n":1`)
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var out bytes.Buffer
	log, closeFn := New(Options{Level: "chatty", Stdout: &out})
	defer closeFn()
	log.Debug("quiet")
	log.Info("loud")
	assert.NotContains(t, out.String(), "quiet")
	assert.Contains(t, out.String(), "loud")
}
