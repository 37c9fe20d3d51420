package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/catena"
	httpAdapter "github.com/aretw0/catena/pkg/adapters/http"
	"github.com/aretw0/catena/pkg/adapters/mcp"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Config  Config
	Addr    string
	Metrics bool
	Out     io.Writer
}

// Serve runs the HTTP API until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := createLogger(opts.Config)

	var extra []catena.Option
	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithVersion(catena.Version),
	}
	if opts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		extra = append(extra, catena.WithLifecycleHooks(metrics.Hooks()))
		handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(reg))
	}

	engine, backend, err := createEngine(ctx, opts.Config, logger, extra...)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           httpAdapter.NewHandler(engine, handlerOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "Starting catena server on %s", srv.Addr)
		printSystemMessage(opts.Out, "Serving chains from: %s (%s backend)", opts.Config.RepoPath, opts.Config.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		printSystemMessage(opts.Out, "catena server stopped gracefully")
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	Config    Config
	Transport string // "stdio" or "sse"
	Port      int
}

// ServeMCP exposes the catalog as MCP tools over stdio or SSE.
// Logs always go to Stderr so they never corrupt JSON-RPC on Stdout.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	logger := createLogger(opts.Config)

	engine, backend, err := createEngine(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv := mcp.NewServer(engine, strings.TrimSpace(catena.Version), mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting catena MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting catena MCP Server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
