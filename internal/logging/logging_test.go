package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)
	l.Debug("hidden")
	l.Info("refetch", "reason", "reconnect")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "refetch", rec["msg"])
	assert.Equal(t, "reconnect", rec["reason"])
	assert.Equal(t, "codeflow-tui", rec["component"])
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tui.log")
	l, err := Open(path, "debug")
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "second close is a no-op")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("", "loud")
	assert.Error(t, err)

	l, err := Open("", "info")
	require.NoError(t, err)
	l.Info("dropped")
	assert.NoError(t, l.Close())
}
