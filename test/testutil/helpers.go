package testutil

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secretvault/filevault/internal/events"
)

// NewTestLogger returns a debug logger writing into the returned buffer.
func NewTestLogger() (*events.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf), &buf
}

// WriteFile creates a file with the given contents under dir.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// RandomBytes returns n random bytes.
func RandomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

// CorruptFile overwrites an existing file with garbage.
func CorruptFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("{corrupt garbage"), 0600))
}
