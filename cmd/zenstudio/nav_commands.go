package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zenstudio/internal/navigation"
	"zenstudio/internal/studio"
)

type moveView struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Via   string `json:"via"`
	Moved bool   `json:"moved"`
}

func newNavCommand(ctx *commandContext) *cobra.Command {
	navCmd := &cobra.Command{
		Use:   "nav",
		Short: "Step through the story from the active segment",
	}

	step := func(use, short string, move func(*navigation.Engine) navigation.Move) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
					m := move(s.Navigator())
					if ctx.jsonMode() {
						return writeJSON(cmd, moveView{From: m.From, To: m.To, Via: string(m.Via), Moved: m.Moved()})
					}
					out := cmd.OutOrStdout()
					if !m.Moved() {
						fmt.Fprintf(out, "Stayed on %s\n", displayID(m.From))
						return nil
					}
					fmt.Fprintf(out, "%s -> %s (%s)\n", displayID(m.From), m.To, m.Via)
					return nil
				})
			},
		}
	}

	next := step("next", "Follow the first eligible branch, else the next segment", (*navigation.Engine).Next)
	next.Aliases = []string{"n"}
	prev := step("prev", "Go to the previous segment in display order", (*navigation.Engine).Previous)
	prev.Aliases = []string{"previous", "p"}

	navCmd.AddCommand(next, prev)
	navCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the active position and available moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				nav := s.Navigator()
				pos := nav.Position()
				peek := nav.PeekNext()
				if ctx.jsonMode() {
					return writeJSON(cmd, map[string]any{
						"active_id":    pos.ActiveID,
						"index":        pos.Index,
						"total":        pos.Total,
						"can_next":     nav.CanNext(),
						"can_previous": nav.CanPrevious(),
						"next":         moveView{From: peek.From, To: peek.To, Via: string(peek.Via), Moved: peek.Moved()},
					})
				}
				out := cmd.OutOrStdout()
				if pos.Index < 0 {
					fmt.Fprintf(out, "No segment selected (%d segments)\n", pos.Total)
					return nil
				}
				fmt.Fprintf(out, "Segment %d of %d: %s\n", pos.Index+1, pos.Total, pos.ActiveID)
				if peek.Moved() {
					fmt.Fprintf(out, "Next: %s (%s)\n", peek.To, peek.Via)
				} else {
					fmt.Fprintln(out, "Next: end of story")
				}
				fmt.Fprintf(out, "Previous available: %s\n", yesNo(nav.CanPrevious()))
				return nil
			})
		},
	})

	return navCmd
}

func displayID(id string) string {
	if id == "" {
		return "(none)"
	}
	return id
}
