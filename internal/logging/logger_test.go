package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   Debug,
		"INFO":    Info,
		" warn ":  Warn,
		"warning": Warn,
		"error":   Error,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	lvl, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, Info, lvl)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	f, err = ParseFormat("logfmt")
	require.NoError(t, err)
	assert.Equal(t, Logfmt, f)

	f, err = ParseFormat("xml")
	assert.Error(t, err)
	assert.Equal(t, Logfmt, f)
}

func TestLoggerLogfmt(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Info, Logfmt)

	log.Debug("hidden")
	log.Info("wrote report", "output", "/tmp/out file.txt", "tags", 3, 42, "dropped", "dangling")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=info")
	assert.Contains(t, out, `msg="wrote report"`)
	assert.Contains(t, out, `output="/tmp/out file.txt"`)
	assert.Contains(t, out, "tags=3")
	assert.NotContains(t, out, "dropped")
	assert.NotContains(t, out, "dangling")
	assert.Contains(t, out, "ts=")
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Debug, JSON)

	log.Warn("push failed", "err", errors.New("boom"), "attempt", 1)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &m))
	assert.Equal(t, "warning", m["level"])
	assert.Equal(t, "push failed", m["msg"])
	assert.Equal(t, "boom", m["err"])
	assert.Equal(t, float64(1), m["attempt"])
	assert.Contains(t, m, "ts")
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Error, Logfmt)

	log.Info("a")
	log.Warn("b")
	log.Error("c")

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "msg=c")
}
