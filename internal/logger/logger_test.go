package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWriter(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelDebug}))
	Debug("gc.sweep", "collected", 3)
	require.Contains(t, buf.String(), "gc.sweep")
	require.Contains(t, buf.String(), "collected=3")

	buf.Reset()
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelWarn, JSON: true}))
	Info("dropped")
	Warn("kept")
	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestInitLogDir(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	dir := t.TempDir()
	require.NoError(t, Init(Options{Enabled: true, LogDir: dir}))
	Info("hello")

	matches, err := filepath.Glob(filepath.Join(dir, logPrefix+"*"+logSuffix))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}

func TestDisabledDiscards(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	require.NoError(t, Init(Options{}))
	require.False(t, L.Enabled(t.Context(), slog.LevelError))
	require.Equal(t, slog.DiscardHandler, L.Handler())
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel(" DEBUG ")
	require.True(t, ok)
	require.Equal(t, slog.LevelDebug, lvl)

	_, ok = ParseLevel("")
	require.False(t, ok)
	_, ok = ParseLevel("loud")
	require.False(t, ok)
}

func TestOr(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	require.Same(t, custom, Or(custom))
	require.Same(t, L, Or(nil))
}
