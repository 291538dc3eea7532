package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigPrintAppliesFlags(t *testing.T) {
	out, err := run(t, "config", "print", "--driver", "memory", "--addr", ":7000", "--log-level", "disabled")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: memory")
	assert.Contains(t, out, "level: disabled")
}

func TestConfigPrintReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("persistence:\n  driver: memory\n"), 0o600))

	out, err := run(t, "config", "print", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "driver: memory")
}

func TestConfigPrintRejectsInvalid(t *testing.T) {
	_, err := run(t, "config", "print", "--driver", "oracle")
	require.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "taskboard.db")

	out, err := run(t, "migrate", "--driver", "sqlite", "--dsn", dsn, "--log-level", "disabled")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite:")

	_, err = run(t, "migrate", "--driver", "sqlite", "--dsn", dsn, "--log-level", "disabled")
	require.NoError(t, err)
}

func TestMigrateMemory(t *testing.T) {
	out, err := run(t, "migrate", "--driver", "memory", "--log-level", "disabled")
	require.NoError(t, err)
	assert.Contains(t, out, "memory: nothing to migrate")
}

func TestUsersAgainstSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "taskboard.db")
	base := []string{"--driver", "sqlite", "--dsn", dsn, "--log-level", "disabled"}

	_, err := run(t, append([]string{"migrate"}, base...)...)
	require.NoError(t, err)

	out, err := run(t, append([]string{"users", "list"}, base...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")

	_, err = run(t, append([]string{"users", "promote", "nobody@example.com"}, base...)...)
	require.Error(t, err)

	_, err = run(t, append([]string{"users", "deactivate", "nobody@example.com"}, base...)...)
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "taskboard version dev")
}
