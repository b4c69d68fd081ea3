package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"zenstudio/internal/config"
	"zenstudio/internal/studio"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set gemini.api_key (or export GEMINI_API_KEY) to enable narration and rewrites.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			redacted := *cfg
			if redacted.Gemini.APIKey != "" {
				redacted.Gemini.APIKey = "<redacted>"
			}
			if redacted.Storage.PostgresDSN != "" {
				redacted.Storage.PostgresDSN = "<redacted>"
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, redacted)
			}
			data, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "# %s\n", ctx.configPath)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	var sample bool
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Start a new story, optionally from the bundled sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				if s.Graph().Len() > 0 && !force {
					return fmt.Errorf("story already has %d segments (use --force to discard them)", s.Graph().Len())
				}
				if err := s.Reset(c, sample); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if sample {
					fmt.Fprintf(out, "Loaded sample story with %d segments\n", s.Graph().Len())
				} else {
					fmt.Fprintln(out, "Started an empty story")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&sample, "sample", false, "Load the bundled sample story")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Discard the existing story")
	return cmd
}
