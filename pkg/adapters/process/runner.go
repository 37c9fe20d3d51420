package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/spf13/cast"
)

// EnvPrefix prefixes the environment variables carrying action params.
const EnvPrefix = "CATENA_PARAM_"

// Runner executes allow-listed local commands.
// Rows go to the process as a JSON array on stdin; params are passed as environment
// variables, never as arguments, so they cannot inject flags.
type Runner struct {
	registry map[string]registeredCommand
	baseDir  string
}

type registeredCommand struct {
	command string
	args    []string
	env     map[string]string
}

// Output is what a command printed.
type Output struct {
	// Rows is set when stdout was a JSON array of objects.
	Rows []domain.Row
	// Text is the trimmed stdout otherwise.
	Text string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommands populates the allow-list from a loaded config.
func WithCommands(commands map[string]CommandConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.registry[name] = registeredCommand{command: c.Command, args: c.Args, env: c.Environment}
		}
	}
}

// WithBaseDir sets the working directory of executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{registry: make(map[string]registeredCommand)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = registeredCommand{command: command, args: args}
}

// Has reports whether name is allowed.
func (r *Runner) Has(name string) bool {
	_, ok := r.registry[name]
	return ok
}

// Names returns the allowed commands, sorted.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the command registered as name. It is killed when ctx is done.
func (r *Runner) Run(ctx context.Context, name string, params map[string]any, rows []domain.Row) (*Output, error) {
	proc, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("command not registered: %s", name)
	}

	if rows == nil {
		rows = []domain.Row{}
	}
	stdin, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rows for %s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, proc.command, proc.args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(proc.env, params)...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command %s interrupted: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("command %s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return parseOutput(stdout.String()), nil
}

func environment(fixed map[string]string, params map[string]any) []string {
	env := make([]string, 0, len(fixed)+len(params))
	for k, v := range fixed {
		env = append(env, k+"="+v)
	}
	for k, v := range params {
		var val string
		switch v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				val = fmt.Sprintf("%v", v)
			} else {
				val = string(b)
			}
		default:
			val = cast.ToString(v)
		}
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+val)
	}
	return env
}

func parseOutput(out string) *Output {
	trimmed := strings.TrimSpace(out)
	if strings.HasPrefix(trimmed, "[") {
		var rows []domain.Row
		if err := json.Unmarshal([]byte(trimmed), &rows); err == nil {
			return &Output{Rows: rows}
		}
	}
	return &Output{Text: trimmed}
}
