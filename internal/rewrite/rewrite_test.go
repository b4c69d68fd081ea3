package rewrite_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"zenstudio/internal/lease"
	"zenstudio/internal/rewrite"
	"zenstudio/internal/services"
	"zenstudio/internal/story"
	"zenstudio/internal/testsupport"
)

func setup(t *testing.T, credential string) (*story.Graph, string, *testsupport.FakeTextGen, *lease.Table, *rewrite.Orchestrator) {
	t.Helper()
	g := story.New()
	id := g.Create(story.Patch{
		Text:   story.Ptr("The wolf waited."),
		Source: &story.SourcePatch{Mood: story.Ptr("Ominous")},
	})
	gen := &testsupport.FakeTextGen{Reply: "  The wolf lurked in shadow.  "}
	leases := lease.NewTable()
	o := rewrite.New(g, gen,
		rewrite.WithLeases(leases),
		rewrite.WithCredential(func() string { return credential }),
	)
	return g, id, gen, leases, o
}

func TestBuildPrompt(t *testing.T) {
	got := rewrite.BuildPrompt("Hello there", "Cheerful")
	want := "Rewrite the following story segment to strongly reflect a \"Cheerful\" mood.\n" +
		"Keep it concise (approx same length).\n" +
		"Text: \"Hello there\"\n" +
		"Return only the rewritten text."
	if got != want {
		t.Fatalf("prompt mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestRewriteReplacesText(t *testing.T) {
	g, id, gen, _, o := setup(t, "key")
	if err := o.Rewrite(context.Background(), id, rewrite.Options{}); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	seg, _ := g.Segment(id)
	if seg.Text != "The wolf lurked in shadow." {
		t.Fatalf("text = %q", seg.Text)
	}
	if !strings.Contains(gen.LastPrompt(), `"Ominous" mood`) || !strings.Contains(gen.LastPrompt(), `Text: "The wolf waited."`) {
		t.Fatalf("unexpected prompt %q", gen.LastPrompt())
	}
	if seg.Source.Mood != "Ominous" {
		t.Fatalf("mood changed without override: %q", seg.Source.Mood)
	}
}

func TestRewriteMoodOverride(t *testing.T) {
	g, id, gen, _, o := setup(t, "key")
	if err := o.Rewrite(context.Background(), id, rewrite.Options{Mood: "joyful"}); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !strings.Contains(gen.LastPrompt(), `"joyful" mood`) {
		t.Fatalf("override not used in prompt: %q", gen.LastPrompt())
	}
	seg, _ := g.Segment(id)
	if seg.Source.Mood != "joyful" {
		t.Fatalf("mood = %q", seg.Source.Mood)
	}
}

func TestRewriteFailuresLeaveTextUntouched(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		segment    string
		reply      string
		err        error
		want       error
		wantCalls  int
	}{
		{name: "missing credential", credential: "", reply: "x", want: services.ErrMissingCredential},
		{name: "unknown segment", credential: "key", segment: "missing", reply: "x", want: services.ErrNotFound},
		{name: "network", credential: "key", err: services.Wrap(services.ErrNetwork, "gemini", "generate", "down", nil), want: services.ErrNetwork, wantCalls: 1},
		{name: "blank reply", credential: "key", reply: "   ", want: services.ErrEmptyResponse, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, id, gen, _, o := setup(t, tt.credential)
			gen.Reply = tt.reply
			gen.Err = tt.err
			target := id
			if tt.segment != "" {
				target = tt.segment
			}
			err := o.Rewrite(context.Background(), target, rewrite.Options{Mood: "Calm"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			seg, _ := g.Segment(id)
			if seg.Text != "The wolf waited." || seg.Source.Mood != "Ominous" {
				t.Fatalf("segment modified on failure: %+v", seg)
			}
			if gen.Calls() != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, gen.Calls())
			}
		})
	}
}

func TestRewriteBusy(t *testing.T) {
	_, id, gen, leases, o := setup(t, "key")
	release, err := leases.Acquire(id, "audio")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()
	if err := o.Rewrite(context.Background(), id, rewrite.Options{}); !errors.Is(err, lease.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if gen.Calls() != 0 {
		t.Fatal("generator called while busy")
	}
}
