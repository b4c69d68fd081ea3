package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"zenstudio/internal/studio"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage stored narration audio",
	}

	assetsCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show asset cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(_ context.Context, s *studio.Session) error {
				stats, err := s.Assets().Stats()
				if err != nil {
					return err
				}
				referenced := len(s.ReferencedAudio())
				if ctx.jsonMode() {
					return writeJSON(cmd, map[string]any{
						"root":        s.Assets().Root(),
						"blobs":       stats.Blobs,
						"total_bytes": stats.TotalBytes,
						"referenced":  referenced,
					})
				}
				rows := [][]string{
					{"Root", s.Assets().Root()},
					{"Blobs", strconv.Itoa(stats.Blobs)},
					{"Referenced", strconv.Itoa(referenced)},
					{"Size", humanize.IBytes(uint64(stats.TotalBytes))},
				}
				if !stats.Oldest.IsZero() {
					rows = append(rows,
						[]string{"Oldest", humanize.Time(stats.Oldest)},
						[]string{"Newest", humanize.Time(stats.Newest)},
					)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	})

	assetsCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete stored audio no segment references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				res, err := s.PruneAssets(c)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d blobs (%s), kept %d\n", len(res.Removed), humanize.IBytes(uint64(res.FreedBytes)), res.Kept)
				return nil
			})
		},
	})

	return assetsCmd
}
