package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zenstudio/internal/story"
	"zenstudio/internal/studio"
)

type segmentView struct {
	Index    int            `json:"index"`
	ID       string         `json:"id"`
	Kind     story.Kind     `json:"type"`
	Text     string         `json:"text_content"`
	Mood     string         `json:"mood"`
	Duration string         `json:"estimated_duration"`
	Image    string         `json:"image,omitempty"`
	Audio    string         `json:"audio,omitempty"`
	Branches []story.Branch `json:"next"`
	Active   bool           `json:"active"`
}

func newSegmentView(seg story.Segment, idx int, active string) segmentView {
	branches := seg.Branches
	if branches == nil {
		branches = []story.Branch{}
	}
	return segmentView{
		Index:    idx,
		ID:       seg.ID,
		Kind:     seg.Kind,
		Text:     seg.Text,
		Mood:     seg.Source.Mood,
		Duration: seg.Source.EstimatedDuration,
		Image:    seg.Assets.Image,
		Audio:    seg.Assets.Audio,
		Branches: branches,
		Active:   seg.ID == active,
	}
}

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	segmentCmd := &cobra.Command{
		Use:     "segment",
		Aliases: []string{"seg"},
		Short:   "Edit story segments",
	}

	segmentCmd.AddCommand(newSegmentListCommand(ctx))
	segmentCmd.AddCommand(newSegmentShowCommand(ctx))
	segmentCmd.AddCommand(newSegmentAddCommand(ctx))
	segmentCmd.AddCommand(newSegmentUpdateCommand(ctx))
	segmentCmd.AddCommand(newSegmentDeleteCommand(ctx))
	segmentCmd.AddCommand(newSegmentMoveCommand(ctx))
	segmentCmd.AddCommand(newSegmentSelectCommand(ctx))
	segmentCmd.AddCommand(newSegmentLinkCommand(ctx))
	segmentCmd.AddCommand(newSegmentUnlinkCommand(ctx))

	return segmentCmd
}

func newSegmentListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List segments in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				snap := s.Graph().Snapshot()
				ordered := snap.Story.Ordered()
				views := make([]segmentView, 0, len(ordered))
				for idx, seg := range ordered {
					views = append(views, newSegmentView(seg, idx, snap.ActiveID))
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No segments")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					marker := ""
					if v.Active {
						marker = "*"
					}
					rows = append(rows, []string{
						marker,
						strconv.Itoa(v.Index),
						v.ID,
						displayLabel(string(v.Kind)),
						v.Mood,
						v.Duration,
						yesNo(v.Audio != "" && s.Assets().Valid(v.Audio)),
						strconv.Itoa(len(v.Branches)),
						truncate(v.Text, 48),
					})
				}
				headers := []string{"", "#", "ID", "Type", "Mood", "Duration", "Audio", "Next", "Text"}
				aligns := []columnAlignment{alignLeft, alignRight}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func newSegmentShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a segment (defaults to the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				snap := s.Graph().Snapshot()
				id := snap.ActiveID
				if len(args) == 1 {
					id = strings.TrimSpace(args[0])
				}
				if id == "" {
					return fmt.Errorf("no segment selected")
				}
				seg, ok := snap.Story.Segments[id]
				if !ok {
					return fmt.Errorf("segment %q not found", id)
				}
				view := newSegmentView(seg, snap.Story.IndexOf(id), snap.ActiveID)
				if ctx.jsonMode() {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", view.ID)
				fmt.Fprintf(out, "Position:  %d of %d\n", view.Index+1, len(snap.Story.Order))
				fmt.Fprintf(out, "Type:      %s\n", view.Kind)
				fmt.Fprintf(out, "Mood:      %s\n", view.Mood)
				fmt.Fprintf(out, "Duration:  %s\n", view.Duration)
				fmt.Fprintf(out, "Image:     %s\n", view.Image)
				if view.Audio != "" {
					fmt.Fprintf(out, "Audio:     %s\n", view.Audio)
				}
				fmt.Fprintf(out, "Active:    %s\n", yesNo(view.Active))
				for i, b := range view.Branches {
					cond := b.Condition
					if cond == "" {
						cond = "always"
					}
					fmt.Fprintf(out, "Next[%d]:   %s (%s)\n", i, b.Target, cond)
				}
				fmt.Fprintf(out, "\n%s\n", view.Text)
				return nil
			})
		},
	}
}

func newSegmentAddCommand(ctx *commandContext) *cobra.Command {
	var text, mood, kind, image string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a segment and select it",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := story.Patch{}
			if kind != "" {
				parsed, err := story.ParseKind(kind)
				if err != nil {
					return err
				}
				p.Kind = &parsed
			}
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				g := s.Graph()
				var id string
				if strings.TrimSpace(text) != "" {
					id = g.CreateFromIngested(story.Ingested{Text: text, Mood: mood, ImageURI: image})
					if p.Kind != nil {
						g.Update(id, story.Patch{Kind: p.Kind})
					}
				} else {
					if mood != "" {
						p.Source = &story.SourcePatch{Mood: story.Ptr(story.NormalizeMood(mood, mood))}
					}
					if image != "" {
						p.Assets = &story.AssetsPatch{Image: story.Ptr(image)}
					}
					id = g.Create(p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created segment %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Narration text")
	cmd.Flags().StringVarP(&mood, "mood", "m", "", "Mood label")
	cmd.Flags().StringVarP(&kind, "type", "k", "", "Segment type: beginning, narration, choice or ending")
	cmd.Flags().StringVar(&image, "image", "", "Image URI")
	return cmd
}

func newSegmentUpdateCommand(ctx *commandContext) *cobra.Command {
	var text, mood, kind, image, audio string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p := story.Patch{}
			if flags.Changed("text") {
				p.Text = story.Ptr(text)
			}
			if flags.Changed("type") {
				parsed, err := story.ParseKind(kind)
				if err != nil {
					return err
				}
				p.Kind = &parsed
			}
			if flags.Changed("mood") {
				p.Source = &story.SourcePatch{Mood: story.Ptr(mood)}
			}
			if flags.Changed("image") || flags.Changed("audio") {
				p.Assets = &story.AssetsPatch{}
				if flags.Changed("image") {
					p.Assets.Image = story.Ptr(image)
				}
				if flags.Changed("audio") {
					p.Assets.Audio = story.Ptr(audio)
				}
			}
			if p == (story.Patch{}) {
				return fmt.Errorf("nothing to update (pass --text, --mood, --type, --image or --audio)")
			}
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if !s.Graph().Update(id, p) {
					return fmt.Errorf("segment %q not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated segment %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Replacement text")
	cmd.Flags().StringVarP(&mood, "mood", "m", "", "Replacement mood")
	cmd.Flags().StringVarP(&kind, "type", "k", "", "Replacement type")
	cmd.Flags().StringVar(&image, "image", "", "Replacement image URI")
	cmd.Flags().StringVar(&audio, "audio", "", "Replacement audio URI (empty clears it)")
	return cmd
}

func newSegmentDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a segment",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if !s.Graph().Delete(id) {
					return fmt.Errorf("segment %q not found", id)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deleted segment %s\n", id)
				if active, ok := s.Graph().Active(); ok {
					fmt.Fprintf(out, "Active segment: %s\n", active)
				}
				return nil
			})
		},
	}
}

func newSegmentMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a segment to another display position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid from index %q", args[0])
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid to index %q", args[1])
			}
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if err := s.Graph().Reorder(from, to); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved segment from %d to %d\n", from, to)
				return nil
			})
		},
	}
}

func newSegmentSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Make a segment the active selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if !s.Graph().Select(id) {
					return fmt.Errorf("segment %q not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected segment %s\n", id)
				return nil
			})
		},
	}
}

func newSegmentLinkCommand(ctx *commandContext) *cobra.Command {
	var condition string

	cmd := &cobra.Command{
		Use:   "link <id> <target>",
		Short: "Add a branch from one segment to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, target := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				seg, ok := s.Graph().Segment(id)
				if !ok {
					return fmt.Errorf("segment %q not found", id)
				}
				if !s.Graph().Has(target) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: target %q does not exist yet\n", target)
				}
				branches := append(seg.Branches, story.Branch{Target: target, Condition: strings.TrimSpace(condition)})
				s.Graph().Update(id, story.Patch{Branches: &branches})
				fmt.Fprintf(cmd.OutOrStdout(), "Linked %s -> %s\n", id, target)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&condition, "if", "", "Lua condition over story variables, e.g. 'has_key and gold > 3'")
	return cmd
}

func newSegmentUnlinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <id> <index>",
		Short: "Remove a branch by its position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid branch index %q", args[1])
			}
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				seg, ok := s.Graph().Segment(id)
				if !ok {
					return fmt.Errorf("segment %q not found", id)
				}
				if idx < 0 || idx >= len(seg.Branches) {
					return fmt.Errorf("branch index %d out of range (segment has %d)", idx, len(seg.Branches))
				}
				branches := append(seg.Branches[:idx:idx], seg.Branches[idx+1:]...)
				s.Graph().Update(id, story.Patch{Branches: &branches})
				fmt.Fprintf(cmd.OutOrStdout(), "Removed branch %d from %s\n", idx, id)
				return nil
			})
		},
	}
}
