package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zenstudio/internal/config"
	"zenstudio/internal/studio"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the story as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(output)
			f, err := resolveFormat(format, target)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if target == "" || target == "-" {
					return s.ExportStory(cmd.OutOrStdout(), f)
				}
				path, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				if err := s.ExportStory(file, f); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close %s: %w", path, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d segments to %s\n", s.Graph().Len(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (inferred from --output when omitted)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (stdout when omitted)")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the story with one read from JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			f, err := resolveFormat(format, source)
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if source != "-" {
				path, err := config.ExpandPath(source)
				if err != nil {
					return err
				}
				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				defer file.Close()
				r = file
			}
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if err := s.ImportStory(r, f); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d segments\n", s.Graph().Len())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (inferred from the file name when omitted)")
	return cmd
}

func newExportAudioCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-audio <dir>",
		Short: "Copy generated narration into a directory in story order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				files, err := s.ExportAudio(c, dir)
				if ctx.jsonMode() {
					if jerr := writeJSON(cmd, files); jerr != nil {
						return jerr
					}
					return err
				}
				out := cmd.OutOrStdout()
				for _, f := range files {
					fmt.Fprintf(out, "%s -> %s\n", f.SegmentID, f.Path)
				}
				fmt.Fprintf(out, "Exported %d of %d segments\n", len(files), s.Graph().Len())
				return err
			})
		},
	}
}

func resolveFormat(flag, path string) (studio.Format, error) {
	if strings.TrimSpace(flag) != "" {
		return studio.ParseFormat(flag)
	}
	if path == "" || path == "-" {
		return studio.FormatJSON, nil
	}
	return studio.FormatForPath(path), nil
}
