package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kevinfinalboss/cmlporter/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestLogger_TranslatesMessageKeys(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestWithOutput(&buf)

	l.Info("transfer_completed").Str("direction", "pull").Send()

	record := decodeRecord(t, &buf)
	assert.Equal(t, getEmbeddedMessages("en-US")["transfer_completed"], record["message"])
	assert.Equal(t, "pull", record["direction"])
	assert.Equal(t, "info", record["level"])
}

func TestLogger_UnknownKeyFallsBackToKey(t *testing.T) {
	l := NewTest()
	assert.Equal(t, "no_such_key", l.GetMessage("no_such_key"))
}

func TestLogger_PartialLocaleFallsBackToEnglish(t *testing.T) {
	l := NewTest()
	l.messages = map[string]string{"app_started": "iniciado"}

	assert.Equal(t, "iniciado", l.GetMessage("app_started"))
	assert.Equal(t, getEmbeddedMessages("en-US")["catalog_written"], l.GetMessage("catalog_written"))
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestWithOutput(&buf).WithFields(map[string]interface{}{
		"operation_id": "op-1",
		"project":      "churn",
	})

	l.Warn("session_close_failed").Send()

	record := decodeRecord(t, &buf)
	assert.Equal(t, "op-1", record["operation_id"])
	assert.Equal(t, "churn", record["project"])
	assert.Equal(t, "warn", record["level"])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestLogger_WithLogFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "logs")

	base := NewWithConfig(&types.Config{Settings: types.SettingsConfig{LogLevel: "debug", Language: "en-US"}})
	l, err := base.WithLogFile(dir)
	require.NoError(t, err)

	l.Debug("phase_entered").Str("phase", "validating").Send()
	require.NoError(t, l.Close())

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "validating")
}

func TestLoadLocaleMessages_MergesOverEmbedded(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	localeDir := filepath.Join(home, ".cmlporter", localesDir)
	require.NoError(t, os.MkdirAll(localeDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(localeDir, "en-US.yaml"), []byte("messages:\n  app_started: custom start\n"), 0644))

	messages, err := loadLocaleMessages("en-US")
	require.NoError(t, err)
	assert.Equal(t, "custom start", messages["app_started"])
	assert.Equal(t, getEmbeddedMessages("en-US")["catalog_written"], messages["catalog_written"])
}
