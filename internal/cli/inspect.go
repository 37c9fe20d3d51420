package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/catena/internal/presentation/graph"
	"github.com/aretw0/catena/internal/presentation/tui"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/schema"
)

// Describe prints a chain and its merged effects.
func Describe(ctx context.Context, cfg Config, id string, out *os.File, asJSON bool) error {
	engine, backend, err := createEngine(ctx, cfg, createLogger(cfg))
	if err != nil {
		return err
	}
	defer backend.Close()

	desc, err := engine.Describe(ctx, id)
	if err != nil {
		return err
	}
	effects, err := engine.Effects(ctx, id)
	if err != nil {
		return err
	}

	if asJSON {
		described := make([]domain.EffectDescription, 0, len(effects))
		for _, e := range effects {
			described = append(described, domain.DescribeEffect(e))
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"id":          id,
			"description": desc,
			"effects":     described,
		})
	}

	rendered, err := tui.NewRenderer(out)(tui.ChainMarkdown(id, desc, effects))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

// Export resolves a chain and prints the description rebuilt from the live chain.
// Format is "yaml" or "json".
func Export(ctx context.Context, cfg Config, id, format string, out *os.File) error {
	engine, backend, err := createEngine(ctx, cfg, createLogger(cfg))
	if err != nil {
		return err
	}
	defer backend.Close()

	desc, err := engine.Describe(ctx, id)
	if err != nil {
		return err
	}
	action, err := engine.Resolve(ctx, desc, nil)
	if err != nil {
		return err
	}
	exported := chain.DescribeAction(action)

	var data []byte
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		data, err = schema.Marshal(exported)
	case "json":
		data, err = json.MarshalIndent(exported, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unknown format %q (yaml, json)", format)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// Graph prints the Mermaid flowchart of a chain.
func Graph(ctx context.Context, cfg Config, id string, out *os.File) error {
	engine, backend, err := createEngine(ctx, cfg, createLogger(cfg))
	if err != nil {
		return err
	}
	defer backend.Close()

	desc, err := engine.Describe(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, graph.GenerateMermaid(id, desc, nil))
	return err
}

// List prints the IDs of the catalog, one per line.
func List(ctx context.Context, cfg Config, out *os.File) error {
	engine, backend, err := createEngine(ctx, cfg, createLogger(cfg))
	if err != nil {
		return err
	}
	defer backend.Close()

	ids, err := engine.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
