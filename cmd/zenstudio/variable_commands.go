package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"zenstudio/internal/story"
	"zenstudio/internal/studio"
)

func newVariableCommand(ctx *commandContext) *cobra.Command {
	varCmd := &cobra.Command{
		Use:     "var",
		Aliases: []string{"variable"},
		Short:   "Manage story variables used by branch conditions",
	}

	varCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				vars := s.Graph().Variables()
				names := make([]string, 0, len(vars))
				for name := range vars {
					names = append(names, name)
				}
				slices.Sort(names)
				if ctx.jsonMode() {
					out := make(map[string]any, len(vars))
					for name, v := range vars {
						out[name] = v.Interface()
					}
					return writeJSON(cmd, out)
				}
				if len(names) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No variables")
					return nil
				}
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					v := vars[name]
					rows = append(rows, []string{name, v.Type().String(), v.String()})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Type", "Value"}, rows, nil))
				return nil
			})
		},
	})

	varCmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Set a variable (true/false and numbers are typed automatically)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			value := story.ParseValue(args[1])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if err := s.Graph().SetVariable(name, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", name, value.String(), value.Type())
				return nil
			})
		},
	})

	varCmd.AddCommand(&cobra.Command{
		Use:   "unset <name>",
		Short: "Remove a variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				if !s.Graph().DeleteVariable(name) {
					return fmt.Errorf("variable %q not set", name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
				return nil
			})
		},
	})

	return varCmd
}
