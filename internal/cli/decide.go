package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkarvine/draftgate/pkg/api"
	"github.com/tkarvine/draftgate/pkg/config"
)

// DecideOptions holds flags for the decide command.
type DecideOptions struct {
	*RootOptions
	EditedText string
	Feedback   string
	Actor      string
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decide <post-id> <approve|reject|edit>",
		Short: "Apply a reviewer decision to a pending post",
		Long: `Apply a reviewer decision to a post in pending_approval.

Example:
  draftgate decide 9f1c approve
  draftgate decide 9f1c reject --feedback "too formal"
  draftgate decide 9f1c edit --text "Final wording."`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EditedText, "text", "", "replacement text for edit decisions")
	cmd.Flags().StringVar(&opts.Feedback, "feedback", "", "feedback forwarded to the generator on reject")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "reviewer name for the audit trail")

	return cmd
}

func runDecide(opts *DecideOptions, id, action string, cmd *cobra.Command) error {
	if !api.Action(action).Valid() {
		return fmt.Errorf("action must be approve, reject or edit, got %q", action)
	}

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

	rec, err := eng.Decide(context.Background(), id, api.Decision{
		Action:     api.Action(action),
		EditedText: opts.EditedText,
		Feedback:   opts.Feedback,
		Actor:      opts.Actor,
	})
	if err != nil {
		var pubErr *api.PublishError
		if errors.As(err, &pubErr) && rec != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "publish failed, post %s is now %s: %v\n", rec.ID, rec.State, pubErr.Cause)
			return nil
		}
		return err
	}

	printRecord(cmd, rec)
	return nil
}
