// internal/logging/logger_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/tamzrod/eg4-bank/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestWriterLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(cfgpkg.LoggingConfig{Level: "info", Format: "json"}, &buf)

	log.Debug("hidden")
	log.Info("connected to bms units", zap.Int("units", 2))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "connected to bms units", rec["msg"])
	assert.EqualValues(t, 2, rec["units"])
}

func TestInitLogger_File(t *testing.T) {
	dir := t.TempDir()
	log, err := InitLogger(cfgpkg.LoggingConfig{
		Level: "debug",
		File:  cfgpkg.FileConfig{Filename: dir + "/bank.log", MaxSizeMB: 1},
	})
	require.NoError(t, err)
	log.Debug("rotating file sink")
	_ = log.Sync()
	assert.FileExists(t, dir+"/bank.log")
}
