package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"labelvision/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("uploaded %s", "a.jpg")
	l.Warning("slow %d", 3)
	l.Error("failed: %v", "boom")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, "uploaded a.jpg")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "failed: boom")
}

func TestNewLogger_PerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("info message")
	l.Error("error message")

	info, err := os.ReadFile(filepath.Join(dir, InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "info message")
	assert.NotContains(t, string(info), "error message")

	errs, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "error message")

	require.NoError(t, l.CleanLogs(ErrorFile))
	errs, err = os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestCleanLogs_ConsoleOnly(t *testing.T) {
	assert.NoError(t, Nop().CleanLogs(InfoFile))
	assert.Equal(t, "", Nop().Dir())
}
