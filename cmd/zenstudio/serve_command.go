package main

import (
	"context"
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"zenstudio/internal/mcp"
	"zenstudio/internal/studio"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP tool server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				server := mcp.NewServer(s, version, ctx.ensureLogger())
				err := server.Run(c, &sdk.StdioTransport{})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}
