package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"zenstudio/internal/ingest"
	"zenstudio/internal/studio"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libCmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Inspect ingested files",
	}

	libCmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List library files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				files := s.Library().List()
				if ctx.jsonMode() {
					return writeJSON(cmd, files)
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					mood, text := "", ""
					if f.Extracted != nil {
						mood = f.Extracted.Mood
						text = truncate(f.Extracted.Text, 40)
					}
					rows = append(rows, []string{f.ID, f.Name, string(f.Status), mood, text, truncate(f.StageMessage, 40)})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Status", "Mood", "Text", "Message"}, rows, nil))
				return nil
			})
		},
	})

	libCmd.AddCommand(&cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a library file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if !s.Library().Delete(id) {
					return fmt.Errorf("library file %q not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed library file %s\n", id)
				return nil
			})
		},
	})

	libCmd.AddCommand(&cobra.Command{
		Use:   "use <id>",
		Short: "Create a segment from an analyzed library file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				segID, err := s.Ingestor().FromLibrary(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created segment %s\n", segID)
				return nil
			})
		},
	})

	return libCmd
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <manifest>",
		Short: "Create segments from a YAML or JSON page manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			manifest, err := ingest.LoadManifest(path)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				report, err := s.Ingestor().Ingest(c, manifest, filepath.Dir(path))
				if ctx.jsonMode() {
					if jerr := writeJSON(cmd, map[string]any{"created": report.Created, "failed": report.Failed}); jerr != nil {
						return jerr
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Created %d segments", len(report.Created))
					if report.Failed > 0 {
						fmt.Fprintf(out, ", %d entries failed", report.Failed)
					}
					fmt.Fprintln(out)
					for _, id := range report.Created {
						fmt.Fprintf(out, "  %s\n", id)
					}
				}
				return err
			})
		},
	}
}
