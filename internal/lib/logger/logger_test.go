package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Prod_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(EnvProd, &buf)

	log.Info("daily pass finished", "reminders", 3)
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "daily pass finished", entry["msg"])
	assert.EqualValues(t, 3, entry["reminders"])
}

func TestNewWithWriter_Dev_WritesText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(EnvDev, &buf)

	log.Debug("calendar loaded", "first_year", 2070)
	assert.Contains(t, buf.String(), "msg=\"calendar loaded\"")
	assert.Contains(t, buf.String(), "first_year=2070")
}

func TestNewWithWriter_Local_UsesTint(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(EnvLocal, &buf)

	log.Warn("lock busy", "key", "billing:daily-pass")
	out := buf.String()
	assert.Contains(t, out, "lock busy")
	assert.Contains(t, out, "key=billing:daily-pass")
	assert.NotContains(t, out, "\x1b[")
}
