package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/catena/internal/testutils"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shipJSON = `{
  "alias": "core.ActionChain",
  "name": "Ship orders",
  "object_alias": "shop.Order",
  "actions": [
    {"alias": "core.UpdateData", "params": {"values": {"status": "shipped"}}},
    {"alias": "core.ShowMessage", "params": {"text": "{rows} orders shipped"}}
  ]
}`

const brokenJSON = `{"alias": "core.ActionChain", "actions": [{"alias": "shop.Teleport"}]}`

// setupRepo creates a loam repository holding the given chain documents.
func setupRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, _ := testutils.SetupTestRepo(t)
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// captureFile returns a file to pass as output and a func reading what was written.
func captureFile(t *testing.T) (*os.File, func() string) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, func() string {
		b, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		return string(b)
	}
}

func clearEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("Env file then environment", func(t *testing.T) {
		clearEnv(t)
		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte(
			"CATENA_BACKEND=sqlite\nCATENA_DSN=file:test.db\nCATENA_LOG_LEVEL=debug\nCATENA_LOCK_TTL=1m\n"), 0o644))
		t.Setenv(EnvLogLevel, "error")

		cfg, err := LoadConfig(envFile)
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.Backend)
		assert.Equal(t, "file:test.db", cfg.DSN)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, time.Minute, cfg.LockTTL)
	})

	t.Run("Missing env file is fine", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
		assert.NoError(t, err)
	})

	t.Run("Invalid settings", func(t *testing.T) {
		tests := map[string]map[string]string{
			"unknown backend": {EnvBackend: "cassandra"},
			"sql without dsn": {EnvBackend: "postgres"},
			"bad log level":   {EnvLogLevel: "loud"},
			"bad log format":  {EnvLogFormat: "xml"},
			"bad ttl":         {EnvLockTTL: "soon"},
			"bad key":         {EnvEncryptionKey: "not base64!"},
			"short key":       {EnvEncryptionKey: "c2hvcnQ="},
		}
		for name, env := range tests {
			t.Run(name, func(t *testing.T) {
				clearEnv(t)
				for k, v := range env {
					t.Setenv(k, v)
				}
				_, err := LoadConfig("")
				assert.Error(t, err)
			})
		}
	})
}

func TestCreateEngine_Backends(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, map[string]string{"ship.json": shipJSON})

	t.Run("Memory", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RepoPath = repo
		eng, backend, err := createEngine(ctx, cfg, createLogger(cfg))
		require.NoError(t, err)
		defer backend.Close()

		assert.NotNil(t, backend.Locker)
		require.NotNil(t, backend.Reader)
		_, isReader := eng.Provider().(ports.RowReader)
		assert.True(t, isReader)
	})

	t.Run("Privacy middlewares", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RepoPath = repo
		cfg.MaskColumns = []string{"^email$"}
		cfg.EncryptionKey = []byte("0123456789abcdef0123456789abcdef")
		cfg.EncryptColumns = []string{"^status$"}

		eng, backend, err := createEngine(ctx, cfg, createLogger(cfg))
		require.NoError(t, err)
		defer backend.Close()

		input, err := ParseInput([]byte(`[{"id": "1", "email": "a@b.c"}]`), "shop.Order")
		require.NoError(t, err)
		_, err = eng.ExecuteByID(ctx, "ship", domain.NewTask(input), nil)
		require.NoError(t, err)

		rows, err := backend.Reader.ReadRows(ctx, "shop.Order")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "***", rows[0]["email"])
		assert.Equal(t, "shipped", rows[0]["status"], "reader decrypts")
	})

	t.Run("SQLite", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RepoPath = repo
		cfg.Backend = BackendSQLite
		cfg.DSN = "file:" + filepath.Join(t.TempDir(), "catena.db")

		eng, backend, err := createEngine(ctx, cfg, createLogger(cfg))
		require.NoError(t, err)
		defer backend.Close()

		input, err := ParseInput([]byte(`[{"id": "1"}]`), "shop.Order")
		require.NoError(t, err)
		_, err = eng.ExecuteByID(ctx, "ship", domain.NewTask(input), nil)
		require.NoError(t, err)

		rows, err := backend.Reader.ReadRows(ctx, "shop.Order")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "shipped", rows[0]["status"])
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := DefaultConfig()
		cfg.RepoPath = repo
		cfg.Backend = BackendRedis
		cfg.RedisAddr = mr.Addr()

		_, backend, err := createEngine(ctx, cfg, createLogger(cfg))
		require.NoError(t, err)
		defer backend.Close()
		assert.NotNil(t, backend.Locker)
		assert.NotNil(t, backend.Provider)
	})

	t.Run("Redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := DefaultConfig()
		cfg.RepoPath = repo
		cfg.Backend = BackendRedis
		cfg.RedisAddr = addr

		_, _, err := createEngine(ctx, cfg, createLogger(cfg))
		assert.ErrorContains(t, err, "not reachable")
	})
}

func TestCreateEngine_Commands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires cat")
	}
	ctx := context.Background()
	repo := setupRepo(t, map[string]string{
		"pipe.json": `{"alias": "core.ActionChain", "actions": [
  {"alias": "process.Run", "params": {"command": "passthrough"}},
  {"alias": "core.ShowMessage", "params": {"text": "{rows} piped"}}
]}`,
	})
	commands := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(commands, []byte("commands:\n  - name: passthrough\n    command: cat\n"), 0o644))

	cfg := DefaultConfig()
	cfg.RepoPath = repo
	cfg.CommandsFile = commands

	eng, backend, err := createEngine(ctx, cfg, createLogger(cfg))
	require.NoError(t, err)
	defer backend.Close()

	input, err := ParseInput([]byte(`[{"id": "1"}, {"id": "2"}]`), "shop.Order")
	require.NoError(t, err)
	res, err := eng.ExecuteByID(ctx, "pipe", domain.NewTask(input), nil)
	require.NoError(t, err)
	assert.Equal(t, "2 piped", res.Message)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t, map[string]string{"ship.json": shipJSON})
	cfg := DefaultConfig()
	cfg.RepoPath = repo

	t.Run("Markdown", func(t *testing.T) {
		out, read := captureFile(t)
		err := Execute(ctx, RunOptions{
			Config:  cfg,
			ChainID: "ship",
			Input:   "-",
			Object:  "shop.Order",
			Stdin:   strings.NewReader(`[{"id": "1"}, {"id": "2"}]`),
			Stdout:  out,
		})
		require.NoError(t, err)

		got := read()
		assert.Contains(t, got, "# ship")
		assert.Contains(t, got, "> 2 orders shipped")
		assert.Contains(t, got, "- **Data modified:** true")
	})

	t.Run("JSON with graph", func(t *testing.T) {
		out, read := captureFile(t)
		err := Execute(ctx, RunOptions{
			Config:  cfg,
			ChainID: "ship",
			Input:   "-",
			Stdin:   strings.NewReader("object: shop.Order\nrows:\n  - id: 7\n"),
			JSON:    true,
			Graph:   true,
			Stdout:  out,
		})
		require.NoError(t, err)

		got := read()
		assert.Contains(t, got, "class ship_0 executed;")
		assert.Contains(t, got, "class ship_1 executed;")
		assert.Contains(t, got, `"message": "1 orders shipped"`)
	})

	t.Run("Unknown chain", func(t *testing.T) {
		out, _ := captureFile(t)
		err := Execute(ctx, RunOptions{Config: cfg, ChainID: "ghost", Stdout: out})
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()

	cfg.RepoPath = setupRepo(t, map[string]string{"ship.json": shipJSON})
	assert.NoError(t, Validate(ctx, cfg))

	cfg.RepoPath = setupRepo(t, map[string]string{"ship.json": shipJSON, "broken.json": brokenJSON})
	err := Validate(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'broken'")
	assert.NoError(t, Validate(ctx, cfg, "ship"))
}

func TestInspectCommands(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.RepoPath = setupRepo(t, map[string]string{"ship.json": shipJSON})

	t.Run("List", func(t *testing.T) {
		out, read := captureFile(t)
		require.NoError(t, List(ctx, cfg, out))
		assert.Equal(t, "ship\n", read())
	})

	t.Run("Describe", func(t *testing.T) {
		out, read := captureFile(t)
		require.NoError(t, Describe(ctx, cfg, "ship", out, false))
		got := read()
		assert.Contains(t, got, "# Ship orders")
		assert.Contains(t, got, "| shop.Order | update |")
	})

	t.Run("Describe JSON", func(t *testing.T) {
		out, read := captureFile(t)
		require.NoError(t, Describe(ctx, cfg, "ship", out, true))
		assert.Contains(t, read(), `"object_alias": "shop.Order"`)
	})

	t.Run("Export", func(t *testing.T) {
		out, read := captureFile(t)
		require.NoError(t, Export(ctx, cfg, "ship", "yaml", out))
		got := read()
		assert.Contains(t, got, "alias: core.ActionChain")
		assert.Contains(t, got, "core.UpdateData")

		assert.Error(t, Export(ctx, cfg, "ship", "toml", out))
	})

	t.Run("Graph", func(t *testing.T) {
		out, read := captureFile(t)
		require.NoError(t, Graph(ctx, cfg, "ship", out))
		assert.Contains(t, read(), `ship_0[["core.UpdateData"]]`)
	})
}

func TestRunWatch_StopsWithContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoPath = setupRepo(t, map[string]string{"ship.json": shipJSON})

	ctx, cancel := context.WithCancel(context.Background())
	var out strings.Builder
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, cfg, &out) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunWatch did not stop")
	}
}
