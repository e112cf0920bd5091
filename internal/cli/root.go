// Package cli implements the draftgate command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool
}

// NewRootCommand creates the root command for the draftgate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "draftgate",
		Short: "LLM social post drafting with human approval",
		Long: `Draftgate generates social media posts with an LLM and holds every
draft for human review. Nothing is published without an explicit approve
or edit decision.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to JSON config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRequestCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewDecideCommand(opts))

	return cmd
}
