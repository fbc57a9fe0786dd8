package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/spf13/cobra"

	"github.com/calder/stepscript/internal/capability"
	"github.com/calder/stepscript/internal/engine"
	"github.com/calder/stepscript/internal/runlog"
	"github.com/calder/stepscript/internal/schedule"
	"github.com/calder/stepscript/internal/script"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Timeout  time.Duration

	// Query optionally provides the query capability for hosted scripts.
	Query capability.QueryExecutor
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <scripts-dir>",
		Short: "Run the scheduler over a directory of scripts",
		Long: `Load every YAML script in the directory, compile each one, and start
the scheduler: scripts with a schedule run on their cron expression,
scripts with runOnStartup fire once shortly after start. Runs until
interrupted.

Example:
  stepscript serve ./scripts --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to run history database (optional)")
	cmd.Flags().DurationVar(&opts.Timeout, "http-timeout", 30*time.Second, "timeout per HTTP request")

	return cmd
}

func serve(cmd *cobra.Command, opts *ServeOptions, dir string) error {
	defs, err := script.LoadDir(dir)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return fmt.Errorf("no script definitions found in %s", dir)
	}

	httpClient := capability.NewRestyClient(opts.Timeout)
	defer httpClient.Close()

	schedOpts := []schedule.Option{schedule.WithLogger(slog.Default())}
	if opts.Database != "" {
		store, err := runlog.Open(opts.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		schedOpts = append(schedOpts, schedule.WithRunLog(store))
	}
	sched := schedule.New(schedOpts...)

	for _, def := range defs {
		progOpts := []engine.Option{engine.WithHTTPClient(httpClient)}
		if opts.Query != nil {
			progOpts = append(progOpts, engine.WithQueryExecutor(opts.Query))
		}
		prog, err := engine.New(def, progOpts...)
		if err != nil {
			return err
		}
		if err := sched.Add(prog); err != nil {
			return err
		}
		slog.Info("loaded script", "script", def.Name,
			"schedule", def.Schedule, "runOnStartup", def.RunOnStartup)
	}

	super, err := supervisor.New(
		supervisor.WithContext(cmd.Context()),
		supervisor.WithRunnables(sched),
		supervisor.WithLogHandler(slog.Default().Handler()),
	)
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	return super.Run()
}
