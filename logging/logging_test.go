package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	p := New(Config{Level: "debug", Format: "json", Output: &buf})

	p.GetLogger("auth").Info("login", "user_id", "u-1", "error", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "auth", entry["logger"])
	assert.Equal(t, "login", entry["message"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	p := New(Config{Level: "warn", Format: "json", Output: &buf})

	p.GetLogger("x").Info("hidden")
	assert.Zero(t, buf.Len())

	p.GetLogger("x").Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPairs(t *testing.T) {
	fields := pairs([]any{"a", 1, "b"})
	assert.Equal(t, 1, fields["a"])
	assert.Equal(t, "b", fields["!BADKEY"])

	fields = pairs([]any{42, "x"})
	assert.Equal(t, 42, fields["!BADKEY"])
}
