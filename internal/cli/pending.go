package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkarvine/draftgate/pkg/config"
)

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pending",
		Short:         "List posts awaiting review",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(rootOpts, cmd)
		},
	}
	return cmd
}

func runPending(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return err
	}

	logger := newLogger(opts.Verbose)
	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	recs, err := eng.ListPending(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "no posts pending approval")
		return nil
	}
	for _, rec := range recs {
		fmt.Fprintf(out, "%s  %-8s  attempt %d  %q\n", rec.ID, rec.Platform, rec.AttemptCount, rec.Topic)
	}
	return nil
}
