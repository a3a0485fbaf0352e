package debuglog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyPathIsNop(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)

	l.Log("ignored %d", 1)
	assert.NoError(t, l.Close())
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	l, err := New(path)
	require.NoError(t, err)
	l.Log("[tracker] created %s", "CPG-7")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reqforge debug log started")
	assert.Contains(t, string(data), "[tracker] created CPG-7")
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Log("no panic")
	assert.NoError(t, l.Close())
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)
	l.Log("hello %s", "world")

	assert.Contains(t, buf.String(), "hello world")
	assert.NoError(t, l.Close())
}
