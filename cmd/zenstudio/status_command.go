package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"zenstudio/internal/library"
	"zenstudio/internal/preflight"
	"zenstudio/internal/story"
	"zenstudio/internal/studio"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and story statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				var pinger preflight.Pinger
				if !offline {
					pinger = s.Gemini()
				}
				checks := preflight.RunAll(c, s.Config(), s.Credential(), pinger)
				summary, err := s.Summary()
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, map[string]any{"checks": checks, "summary": summary})
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderStatus(checks, summary, colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Gemini reachability check")
	return cmd
}

func renderStatus(checks []preflight.Result, sum studio.Summary, colorize bool) []string {
	lines := []string{renderSectionHeader("Checks", colorize)}
	for _, r := range checks {
		kind := statusOK
		if !r.Passed {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}

	lines = append(lines, "", renderSectionHeader("Story", colorize))
	lines = append(lines, renderStatusLine("Storage", statusInfo, sum.Backend, colorize))
	lines = append(lines, renderStatusLine("Segments", statusInfo, fmt.Sprintf("%d (%s)", sum.Segments, kindBreakdown(sum.SegmentsByKind)), colorize))

	audioKind := statusOK
	if sum.WithAudio < sum.Segments {
		audioKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Audio", audioKind, fmt.Sprintf("%d of %d segments", sum.WithAudio, sum.Segments), colorize))

	branchKind := statusOK
	if sum.DanglingBranches > 0 {
		branchKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Dangling branches", branchKind, fmt.Sprintf("%d", sum.DanglingBranches), colorize))
	lines = append(lines, renderStatusLine("Variables", statusInfo, fmt.Sprintf("%d", sum.Variables), colorize))
	lines = append(lines, renderStatusLine("Active", statusInfo, displayID(sum.ActiveID), colorize))
	lines = append(lines, renderStatusLine("Library", statusInfo, libraryBreakdown(sum.Library), colorize))
	lines = append(lines, renderStatusLine("Assets", statusInfo,
		fmt.Sprintf("%d blobs, %s", sum.Assets.Blobs, humanize.IBytes(uint64(sum.Assets.TotalBytes))), colorize))
	lines = append(lines, renderStatusLine("Theme", statusInfo, string(sum.Theme), colorize))

	credKind := statusOK
	if sum.CredentialSource == "none" {
		credKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Credential", credKind, sum.CredentialSource, colorize))
	return lines
}

func kindBreakdown(counts map[story.Kind]int) string {
	if len(counts) == 0 {
		return "empty"
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[story.Kind(k)]))
	}
	return strings.Join(parts, ", ")
}

func libraryBreakdown(counts map[library.Status]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d files (%d analyzed, %d processing, %d error)", total,
		counts[library.StatusAnalyzed], counts[library.StatusProcessing], counts[library.StatusError])
}
