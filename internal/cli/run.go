package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder/stepscript/internal/capability"
	"github.com/calder/stepscript/internal/engine"
	"github.com/calder/stepscript/internal/runlog"
	"github.com/calder/stepscript/internal/script"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input    string
	Database string
	Debug    bool
	Timeout  time.Duration

	// Query allows tests (and embedders) to provide a query capability.
	// The CLI has no query backend of its own.
	Query capability.QueryExecutor
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Execute a script once and print its output document",
		Long: `Load, validate and compile a YAML script definition, execute it once,
and print the final document.

The input document defaults to an empty object; pass --input with inline
JSON or @file to supply one. With --db, the run is recorded in the run
history database.

Example:
  stepscript run jobs/reshape.yaml
  stepscript run jobs/reshape.yaml --input '{"id": 42}' --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "input document as JSON, or @file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to run history database (optional)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "capture a per-step trace in the output")
	cmd.Flags().DurationVar(&opts.Timeout, "http-timeout", 30*time.Second, "timeout per HTTP request")

	return cmd
}

func runScript(cmd *cobra.Command, opts *RunOptions, path string) error {
	def, err := script.LoadFile(path)
	if err != nil {
		return err
	}

	input, err := parseInput(opts.Input)
	if err != nil {
		return err
	}

	httpClient := capability.NewRestyClient(opts.Timeout)
	defer httpClient.Close()

	progOpts := []engine.Option{engine.WithHTTPClient(httpClient)}
	if opts.Query != nil {
		progOpts = append(progOpts, engine.WithQueryExecutor(opts.Query))
	}
	prog, err := engine.New(def, progOpts...)
	if err != nil {
		return err
	}
	prog.SetDebug(opts.Debug)

	started := time.Now()
	output, runErr := prog.Run(cmd.Context(), input)

	if opts.Database != "" {
		store, err := runlog.Open(opts.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.RecordResult(context.WithoutCancel(cmd.Context()), def.Name, started, output, runErr); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	return printValue(cmd.OutOrStdout(), opts.Format, output)
}

// parseInput decodes the --input flag: empty means nil (the engine
// substitutes an empty object), @path reads a JSON file, anything else is
// inline JSON.
func parseInput(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		b, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("read input file: %w", err)
		}
		data = b
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse input document: %w", err)
	}
	return v, nil
}
