package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkarvine/draftgate/pkg/api"
	"github.com/tkarvine/draftgate/pkg/config"
)

// RequestOptions holds flags for the request command.
type RequestOptions struct {
	*RootOptions
	Platform string
	Tone     string
	Context  string
}

// NewRequestCommand creates the request command.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "request <topic>",
		Short: "Generate a post draft for review",
		Long: `Generate a post draft and leave it pending approval.

Example:
  draftgate request "our v2 launch" --platform twitter --tone casual`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Platform, "platform", "twitter", "target platform (twitter|linkedin)")
	cmd.Flags().StringVar(&opts.Tone, "tone", "professional", "desired tone")
	cmd.Flags().StringVar(&opts.Context, "context", "", "additional requirements")

	return cmd
}

func runRequest(opts *RequestOptions, topic string, cmd *cobra.Command) error {
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

	rec, err := eng.RequestGeneration(context.Background(), api.GenerationRequest{
		Topic:             topic,
		Platform:          api.Platform(opts.Platform),
		Tone:              opts.Tone,
		AdditionalContext: opts.Context,
	})
	if err != nil {
		var genErr *api.GenerationError
		if errors.As(err, &genErr) && rec != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "generation failed, post %s closed as %s: %v\n", rec.ID, rec.State, genErr.Cause)
			return nil
		}
		return err
	}

	printRecord(cmd, rec)
	return nil
}

func printRecord(cmd *cobra.Command, rec *api.PostRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:       %s\n", rec.ID)
	fmt.Fprintf(out, "state:    %s\n", rec.State)
	fmt.Fprintf(out, "platform: %s\n", rec.Platform)
	fmt.Fprintf(out, "attempt:  %d\n", rec.AttemptCount)
	if rec.Text != "" {
		fmt.Fprintf(out, "chars:    %d/%d\n\n%s\n", rec.CharCount(), rec.Platform.MaxLength(), rec.FormattedText())
	}
	if rec.PublishedURL != "" {
		fmt.Fprintf(out, "url:      %s\n", rec.PublishedURL)
	}
	if rec.LastError != "" {
		fmt.Fprintf(out, "error:    %s\n", rec.LastError)
	}
}
