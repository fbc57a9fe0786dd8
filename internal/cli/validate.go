package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calder/stepscript/internal/engine"
	"github.com/calder/stepscript/internal/script"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file-or-directory>",
		Short: "Validate and compile script definitions without running them",
		Long: `Load each YAML definition, check it against the definition schema, and
compile it (label resolution included). Exits non-zero on the first
invalid definition.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validatePath(cmd, opts, args[0])
		},
	}
	return cmd
}

func validatePath(cmd *cobra.Command, opts *ValidateOptions, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	var defs []*script.Definition
	if info.IsDir() {
		defs, err = script.LoadDir(path)
	} else {
		var def *script.Definition
		def, err = script.LoadFile(path)
		if def != nil {
			defs = []*script.Definition{def}
		}
	}
	if err != nil {
		return err
	}

	for _, def := range defs {
		if _, err := engine.New(def); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d steps)\n", def.Name, len(def.Steps))
	}
	return nil
}
