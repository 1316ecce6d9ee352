package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.log")
	log := NewIsolatedLogger(path)

	log.Info("Client", "connected", map[string]interface{}{"url": "ws://localhost"})
	log.Error("Client", "read failed", map[string]interface{}{"error": errors.New("boom")})
	log.Warn("Client", "no details", nil)
	_ = log.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 3)

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "connected", lines[0]["message"])
	assert.Equal(t, "Client", lines[0]["module"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "WARN", lines[2]["level"])
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Debug("Test", "ignored", nil)
	assert.NoError(t, log.Sync())
}
