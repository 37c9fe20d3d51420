package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
}

func TestRunner_Run(t *testing.T) {
	skipWithoutShell(t)
	ctx := context.Background()

	r := NewRunner()
	r.Register("echo_rows", "cat")
	r.Register("echo_env", "sh", "-c", "echo $CATENA_PARAM_MSG")
	r.Register("fail", "sh", "-c", "echo broken >&2; exit 3")

	t.Run("Rows Through Stdin", func(t *testing.T) {
		out, err := r.Run(ctx, "echo_rows", nil, []domain.Row{{"id": "1"}, {"id": "2"}})
		require.NoError(t, err)
		require.Len(t, out.Rows, 2)
		assert.Equal(t, "2", out.Rows[1]["id"])
		assert.Empty(t, out.Text)
	})

	t.Run("No Rows Sends Empty Array", func(t *testing.T) {
		out, err := r.Run(ctx, "echo_rows", nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, out.Rows)
		assert.Empty(t, out.Rows)
	})

	t.Run("Params Via Env Vars", func(t *testing.T) {
		out, err := r.Run(ctx, "echo_env", map[string]any{"msg": "SecretMessage"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "SecretMessage", out.Text)
	})

	t.Run("Unregistered Command", func(t *testing.T) {
		_, err := r.Run(ctx, "hacker_script", nil, nil)
		assert.ErrorContains(t, err, "not registered")
	})

	t.Run("Failure Carries Stderr", func(t *testing.T) {
		_, err := r.Run(ctx, "fail", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("Context Cancels", func(t *testing.T) {
		r.Register("slow", "sleep", "5")
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := r.Run(ctx, "slow", nil, nil)
		assert.ErrorContains(t, err, "interrupted")
		assert.Less(t, time.Since(start), 4*time.Second)
	})
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, DefaultConfigFile)
		require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - name: enrich
    command: ./enrich.sh
    args: [--fast]
    env:
      MODE: test
  - command: ignored-without-name
`), 0o644))

		commands, err := LoadCommands(path)
		require.NoError(t, err)
		require.Len(t, commands, 1)
		assert.Equal(t, []string{"--fast"}, commands["enrich"].Args)
		assert.Equal(t, "test", commands["enrich"].Environment["MODE"])
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "commands.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"commands": [{"name": "ls", "command": "ls"}]}`), 0o644))

		commands, err := LoadCommands(path)
		require.NoError(t, err)
		assert.Contains(t, commands, "ls")
	})

	t.Run("Missing File", func(t *testing.T) {
		commands, err := LoadCommands(filepath.Join(dir, "none.yaml"))
		require.NoError(t, err)
		assert.Empty(t, commands)
	})

	t.Run("Command Without Executable", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("commands:\n  - name: x\n"), 0o644))
		_, err := LoadCommands(path)
		assert.Error(t, err)
	})
}
