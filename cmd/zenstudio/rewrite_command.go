package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zenstudio/internal/rewrite"
	"zenstudio/internal/services"
	"zenstudio/internal/studio"
)

func newRewriteCommand(ctx *commandContext) *cobra.Command {
	var mood string

	cmd := &cobra.Command{
		Use:   "rewrite [id]",
		Short: "Rewrite a segment's text to match its mood (defaults to the active segment)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				ids, err := targetSegments(s, args, false)
				if err != nil {
					return err
				}
				id := ids[0]
				if err := s.Rewriter().Rewrite(c, id, rewrite.Options{Mood: mood}); err != nil {
					d := services.ErrorDetails(err)
					if d.Hint != "" {
						return fmt.Errorf("rewrite %s: %w (%s)", id, err, d.Hint)
					}
					return fmt.Errorf("rewrite %s: %w", id, err)
				}
				seg, ok := s.Graph().Segment(id)
				if !ok {
					return fmt.Errorf("segment %q removed during rewrite", id)
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, map[string]string{"id": seg.ID, "mood": seg.Source.Mood, "text_content": seg.Text})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Rewrote %s (%s)\n\n%s\n", seg.ID, seg.Source.Mood, seg.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&mood, "mood", "m", "", "Rewrite towards this mood and store it on the segment")
	return cmd
}
