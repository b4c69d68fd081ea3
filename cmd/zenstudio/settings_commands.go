package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zenstudio/internal/persist"
	"zenstudio/internal/studio"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Persisted studio preferences",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "theme [dark|light|toggle]",
		Short: "Show or change the theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				out := cmd.OutOrStdout()
				if len(args) == 0 {
					fmt.Fprintf(out, "Theme: %s\n", s.Theme())
					return nil
				}
				arg := strings.ToLower(strings.TrimSpace(args[0]))
				if arg == "toggle" {
					theme, err := s.ToggleTheme(c)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Theme: %s\n", theme)
					return nil
				}
				theme, err := persist.ParseTheme(arg)
				if err != nil {
					return err
				}
				if err := s.SetTheme(c, theme); err != nil {
					return err
				}
				fmt.Fprintf(out, "Theme: %s\n", theme)
				return nil
			})
		},
	})

	var clear bool
	credCmd := &cobra.Command{
		Use:   "credential [api-key]",
		Short: "Store or clear the Gemini API key (shows the source when no key is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				out := cmd.OutOrStdout()
				switch {
				case clear:
					if err := s.SetCredential(c, ""); err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared stored credential (now using: %s)\n", s.CredentialSource())
				case len(args) == 1:
					key := strings.TrimSpace(args[0])
					if key == "" {
						return fmt.Errorf("api key must not be empty (use --clear to remove it)")
					}
					if err := s.SetCredential(c, key); err != nil {
						return err
					}
					fmt.Fprintln(out, "Stored credential")
				default:
					fmt.Fprintf(out, "Credential source: %s\n", s.CredentialSource())
				}
				return nil
			})
		},
	}
	credCmd.Flags().BoolVar(&clear, "clear", false, "Remove the stored credential")
	settingsCmd.AddCommand(credCmd)

	return settingsCmd
}
