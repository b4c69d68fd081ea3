package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"zenstudio/internal/audiogen"
	"zenstudio/internal/services"
	"zenstudio/internal/studio"
)

type audioView struct {
	ID           string            `json:"id"`
	Outcome      audiogen.Outcome  `json:"outcome"`
	URI          string            `json:"uri,omitempty"`
	FallbackText string            `json:"fallback_text,omitempty"`
	Spoken       bool              `json:"spoken,omitempty"`
	Error        *services.Details `json:"error,omitempty"`
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var all bool
	var noSpeak bool

	cmd := &cobra.Command{
		Use:   "audio [id...]",
		Short: "Ensure segments have narration audio (defaults to the active segment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, s *studio.Session) error {
				ids, err := targetSegments(s, args, all)
				if err != nil {
					return err
				}
				speaker := audiogen.NewSpeaker(s.Config().Fallback.Command)
				views := make([]audioView, 0, len(ids))
				failed := 0
				for _, id := range ids {
					res := s.Audio().EnsureAudio(c, id, audiogen.Options{Refresh: refresh})
					view := audioView{ID: id, Outcome: res.Outcome, URI: res.URI, FallbackText: res.FallbackText}
					if res.Err != nil {
						d := services.ErrorDetails(res.Err)
						view.Error = &d
					}
					if !res.OK() {
						failed++
					}
					if res.Outcome == audiogen.FallbackRequired && !noSpeak && speaker.Available() {
						if err := speaker.Speak(c, res.FallbackText); err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
						} else {
							view.Spoken = true
						}
					}
					views = append(views, view)
					if !ctx.jsonMode() {
						printAudioView(cmd, view)
					}
				}
				if ctx.jsonMode() {
					if err := writeJSON(cmd, views); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d segments have no audio", failed, len(ids))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Regenerate even if audio is cached")
	cmd.Flags().BoolVar(&all, "all", false, "Process every segment in display order")
	cmd.Flags().BoolVar(&noSpeak, "no-speak", false, "Do not run the fallback speech command")
	return cmd
}

func printAudioView(cmd *cobra.Command, v audioView) {
	out := cmd.OutOrStdout()
	switch v.Outcome {
	case audiogen.Cached:
		fmt.Fprintf(out, "%s: cached %s\n", v.ID, v.URI)
	case audiogen.Generated:
		fmt.Fprintf(out, "%s: generated %s\n", v.ID, v.URI)
	case audiogen.Busy:
		fmt.Fprintf(out, "%s: busy, another operation is running\n", v.ID)
	default:
		fmt.Fprintf(out, "%s: fallback required\n", v.ID)
		if v.Error != nil {
			fmt.Fprintf(out, "  reason: %s\n", v.Error.Message)
			if v.Error.Hint != "" {
				fmt.Fprintf(out, "  hint:   %s\n", v.Error.Hint)
			}
		}
		if !v.Spoken && v.FallbackText != "" {
			fmt.Fprintf(out, "  text:   %s\n", v.FallbackText)
		}
	}
}

// targetSegments resolves command arguments to segment ids. No arguments
// means the active segment.
func targetSegments(s *studio.Session, args []string, all bool) ([]string, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("--all cannot be combined with segment ids")
		}
		ids := s.Graph().Order()
		if len(ids) == 0 {
			return nil, errors.New("story has no segments")
		}
		return ids, nil
	}
	if len(args) == 0 {
		id, ok := s.Graph().Active()
		if !ok {
			return nil, errors.New("no segment selected; pass a segment id")
		}
		return []string{id}, nil
	}
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			ids = append(ids, arg)
		}
	}
	return ids, nil
}
