package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder/stepscript/internal/runlog"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Script   string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs, newest first",
		Args:  cobra.NoArgs,
		Example: `  stepscript history --db ./runs.db
  stepscript history --db ./runs.db --script nightly-sync --limit 10`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to run history database (required)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "filter by script name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to show")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func showHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	store, err := runlog.Open(opts.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), opts.Script, opts.Limit)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		type jsonRun struct {
			ID         string `json:"id"`
			Script     string `json:"script"`
			StartedAt  string `json:"startedAt"`
			FinishedAt string `json:"finishedAt"`
			Status     string `json:"status"`
			Error      string `json:"error,omitempty"`
		}
		out := make([]jsonRun, 0, len(runs))
		for _, r := range runs {
			out = append(out, jsonRun{
				ID:         r.ID,
				Script:     r.Script,
				StartedAt:  r.StartedAt.Format(time.RFC3339),
				FinishedAt: r.FinishedAt.Format(time.RFC3339),
				Status:     r.Status,
				Error:      r.Error,
			})
		}
		return printValue(cmd.OutOrStdout(), "json", out)
	}

	w := cmd.OutOrStdout()
	for _, r := range runs {
		line := fmt.Sprintf("%s  %-20s %-5s %s",
			r.StartedAt.Format(time.RFC3339), r.Script, r.Status,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
		if r.Error != "" {
			line += "  " + r.Error
		}
		fmt.Fprintln(w, line)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
	}
	return nil
}
