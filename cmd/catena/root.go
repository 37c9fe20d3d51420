package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/catena/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "catena",
	Short:         "catena runs action chains",
	Long:          `catena executes declarative chains of data actions against memory, Redis or SQL backends.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the chain catalog")
	flags.String("env-file", ".env", "File with CATENA_* settings")
	flags.String("backend", "", "Store to write to: memory, redis, sqlite or postgres (env CATENA_BACKEND)")
	flags.String("dsn", "", "Connection string of the sqlite or postgres backend (env CATENA_DSN)")
	flags.String("redis-addr", "", "Address of the redis backend (env CATENA_REDIS_ADDR)")
	flags.String("log-level", "", "debug, info, warn or error (env CATENA_LOG_LEVEL)")
	flags.Bool("log-json", false, "Emit logs as JSON lines")
	flags.String("commands", "", "File listing the commands process.Run may execute (env CATENA_COMMANDS)")
}

// loadConfig merges the env file, the environment and the flags set on cmd.
func loadConfig(cmd *cobra.Command) (cli.Config, error) {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")

	cfg, err := cli.LoadConfig(envFile)
	if err != nil {
		return cfg, err
	}

	cfg.RepoPath, _ = flags.GetString("dir")
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("dsn") {
		cfg.DSN, _ = flags.GetString("dsn")
	}
	if flags.Changed("redis-addr") {
		cfg.RedisAddr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("commands") {
		cfg.CommandsFile, _ = flags.GetString("commands")
	}
	if asJSON, _ := flags.GetBool("log-json"); asJSON {
		cfg.LogFormat = "json"
	}
	return cfg, cfg.Validate()
}
