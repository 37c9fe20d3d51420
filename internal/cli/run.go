package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/internal/presentation/graph"
	"github.com/aretw0/catena/internal/presentation/tui"
	"github.com/aretw0/catena/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config  Config
	ChainID string
	Input   string // Path to a JSON/YAML rows file, "-" for stdin
	Object  string // Meta-object of the input rows
	Surface string // Surface the chain is bound to, e.g. a page ID
	JSON    bool   // Print the result as JSON
	Graph   bool   // Print the chain graph with the steps that ran
	Banner  bool
	Stdin   io.Reader
	Stdout  *os.File
}

// Execute handles the run command: it executes one chain of the catalog and prints the result.
// The engine commits when the chain succeeds and rolls back otherwise.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}

	logger := createLogger(opts.Config)
	recorder := graph.NewRecorder()

	engine, backend, err := createEngine(ctx, opts.Config, logger, catena.WithLifecycleHooks(recorder.Hooks()))
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close backend", "err", err)
		}
	}()

	input, err := LoadInput(opts.Input, opts.Object, opts.Stdin)
	if err != nil {
		return err
	}
	task := domain.NewTask(input)
	if opts.Object != "" {
		o := domain.ParseObject(opts.Object)
		task.Object = &o
	}
	if opts.Surface != "" {
		task.Surface = &domain.Surface{ID: opts.Surface}
	}

	if opts.Banner && !opts.JSON {
		tui.PrintBanner(opts.Stdout)
	}

	res, runErr := engine.ExecuteByID(ctx, opts.ChainID, task, nil)

	if opts.Graph {
		desc, err := engine.Describe(ctx, opts.ChainID)
		if err == nil {
			fmt.Fprint(opts.Stdout, graph.GenerateMermaid(opts.ChainID, desc, recorder.Overlay()))
		}
	}
	if runErr != nil {
		return runErr
	}

	return printResult(opts.Stdout, opts.ChainID, res, opts.JSON)
}

func printResult(out *os.File, chainID string, res *domain.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	rendered, err := tui.NewRenderer(out)(tui.ResultMarkdown(chainID, res))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
