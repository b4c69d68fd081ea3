package audiogen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoSpeaker is returned by Speak when no local command is configured.
var ErrNoSpeaker = errors.New("no fallback speech command configured")

// Speaker voices FallbackRequired text with a local command. The text is
// appended to argv as the final argument.
type Speaker struct {
	argv []string
}

// NewSpeaker returns a Speaker for argv. Blank entries are ignored.
func NewSpeaker(argv []string) *Speaker {
	clean := make([]string, 0, len(argv))
	for _, part := range argv {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return &Speaker{argv: clean}
}

// Available reports whether a command is configured.
func (s *Speaker) Available() bool {
	return s != nil && len(s.argv) > 0
}

// Speak runs the command and waits for it to finish.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	if !s.Available() {
		return ErrNoSpeaker
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	args := append(append([]string(nil), s.argv[1:]...), text)
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("fallback speech %s: %w: %s", s.argv[0], err, msg)
		}
		return fmt.Errorf("fallback speech %s: %w", s.argv[0], err)
	}
	return nil
}
