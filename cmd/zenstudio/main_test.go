package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zenstudio/internal/preflight"
	"zenstudio/internal/story"
	"zenstudio/internal/studio"
	"zenstudio/internal/testsupport"
)

func listSegments(t *testing.T, env *cliTestEnv) []segmentView {
	t.Helper()
	out := env.mustRun(t, "--json", "segment", "list")
	var views []segmentView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode segment list: %v\n%s", err, out)
	}
	return views
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "config", "show")
	requireContains(t, out, "<redacted>")
	requireContains(t, out, env.cfg.Paths.DataDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out = env.mustRun(t, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestSegmentLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "segment", "list")
	requireContains(t, out, "No segments")

	env.mustRun(t, "segment", "add", "--text", "The forest was quiet.", "--mood", "calm")
	env.mustRun(t, "segment", "add", "--type", "ending")

	views := listSegments(t, env)
	if len(views) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(views))
	}
	first, second := views[0], views[1]
	if first.Mood != "calm" || first.Kind != story.KindNarration {
		t.Fatalf("unexpected first segment %+v", first)
	}
	table := env.mustRun(t, "segment", "list")
	requireContains(t, table, "Narration")
	requireContains(t, table, "calm")
	if second.Kind != story.KindEnding || !second.Active {
		t.Fatalf("expected new ending to be selected, got %+v", second)
	}

	env.mustRun(t, "segment", "update", first.ID, "--text", "The forest held its breath.")
	out = env.mustRun(t, "segment", "show", first.ID)
	requireContains(t, out, "The forest held its breath.")

	if _, _, err := env.run(t, "segment", "update", first.ID); err == nil {
		t.Fatal("expected error for update without fields")
	}
	if _, _, err := env.run(t, "segment", "update", first.ID, "--type", "prologue"); err == nil {
		t.Fatal("expected error for unknown type")
	}

	env.mustRun(t, "segment", "move", "1", "0")
	views = listSegments(t, env)
	if views[0].ID != second.ID {
		t.Fatalf("expected %s first after move, got %s", second.ID, views[0].ID)
	}
	if _, _, err := env.run(t, "segment", "move", "0", "5"); err == nil {
		t.Fatal("expected out-of-range move to fail")
	}

	env.mustRun(t, "segment", "link", first.ID, second.ID, "--if", "gold > 3")
	views = listSegments(t, env)
	if len(views[1].Branches) != 1 || views[1].Branches[0].Condition != "gold > 3" {
		t.Fatalf("expected branch on %s, got %+v", first.ID, views[1].Branches)
	}
	env.mustRun(t, "segment", "unlink", first.ID, "0")

	env.mustRun(t, "segment", "select", first.ID)
	env.mustRun(t, "segment", "delete", first.ID)
	views = listSegments(t, env)
	if len(views) != 1 || !views[0].Active {
		t.Fatalf("expected remaining segment to be active, got %+v", views)
	}
	if _, _, err := env.run(t, "segment", "delete", first.ID); err == nil {
		t.Fatal("expected delete of missing segment to fail")
	}
}

func TestInitSampleAndNavigation(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "init", "--sample")
	requireContains(t, out, "3 segments")

	if _, _, err := env.run(t, "init"); err == nil {
		t.Fatal("expected init to refuse a non-empty story")
	}

	out = env.mustRun(t, "nav", "next")
	requireContains(t, out, "s1 -> s2 (linear)")
	out = env.mustRun(t, "nav", "status")
	requireContains(t, out, "Segment 2 of 3: s2")

	env.mustRun(t, "segment", "link", "s2", "s1", "--if", "not met_wolf")
	out = env.mustRun(t, "nav", "next")
	requireContains(t, out, "s2 -> s1 (branch)")

	env.mustRun(t, "var", "set", "met_wolf", "true")
	env.mustRun(t, "segment", "select", "s2")
	out = env.mustRun(t, "nav", "next")
	requireContains(t, out, "s2 -> s3 (linear)")

	out = env.mustRun(t, "nav", "next")
	requireContains(t, out, "Stayed on s3")

	out = env.mustRun(t, "nav", "prev")
	requireContains(t, out, "s3 -> s2")
}

func TestVariables(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "var", "set", "gold", "4")
	requireContains(t, out, "gold = 4 (number)")
	env.mustRun(t, "var", "set", "name", "Red")

	out = env.mustRun(t, "--json", "var", "list")
	var vars map[string]any
	if err := json.Unmarshal([]byte(out), &vars); err != nil {
		t.Fatalf("decode vars: %v", err)
	}
	if vars["gold"] != float64(4) || vars["name"] != "Red" {
		t.Fatalf("unexpected vars %v", vars)
	}

	env.mustRun(t, "var", "unset", "gold")
	if _, _, err := env.run(t, "var", "unset", "gold"); err == nil {
		t.Fatal("expected unset of missing variable to fail")
	}
}

func TestAudioGenerateCacheExportAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "--sample")

	out := env.mustRun(t, "audio", "s1")
	requireContains(t, out, "s1: generated asset://audio/")
	out = env.mustRun(t, "audio", "s1")
	requireContains(t, out, "s1: cached")
	if env.synth.Calls() != 1 {
		t.Fatalf("expected one synthesis, got %d", env.synth.Calls())
	}

	env.mustRun(t, "audio", "--refresh", "s1")
	if env.synth.Calls() != 2 {
		t.Fatalf("expected refresh to synthesize again, got %d calls", env.synth.Calls())
	}

	dir := filepath.Join(t.TempDir(), "export")
	out = env.mustRun(t, "export-audio", dir)
	requireContains(t, out, "Exported 1 of 3 segments")
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one exported file, got %v (%v)", entries, err)
	}
	if !strings.HasPrefix(entries[0].Name(), "01-little-red-riding-hood") {
		t.Fatalf("unexpected export name %q", entries[0].Name())
	}

	out = env.mustRun(t, "assets", "prune")
	requireContains(t, out, "Removed 0 blobs")

	env.mustRun(t, "segment", "update", "s1", "--audio", "")
	out = env.mustRun(t, "assets", "prune")
	requireContains(t, out, "Removed 1 blobs")
}

func TestAudioFallbackSpeaksText(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFallback())
	env.synth.Err = errors.New("quota exceeded")
	env.mustRun(t, "init", "--sample")

	out, _, err := env.run(t, "audio", "s2")
	if err == nil {
		t.Fatal("expected audio command to report missing audio")
	}
	requireContains(t, out, "s2: fallback required")

	data, readErr := os.ReadFile(testsupport.FallbackCapturePath(env.cfg))
	if readErr != nil {
		t.Fatalf("read fallback capture: %v", readErr)
	}
	requireContains(t, string(data), "Suddenly, a shadow moved")

	out, _, _ = env.run(t, "--json", "audio", "--no-speak", "s2")
	var views []audioView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode audio output: %v\n%s", err, out)
	}
	if len(views) != 1 || views[0].Spoken || views[0].Error == nil || views[0].FallbackText == "" {
		t.Fatalf("unexpected audio view %+v", views)
	}
}

func TestAudioMissingCredential(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIKey(""))
	env.mustRun(t, "init", "--sample")

	out, _, err := env.run(t, "audio", "--no-speak")
	if err == nil {
		t.Fatal("expected failure without credential")
	}
	requireContains(t, out, "s1: fallback required")
	requireContains(t, out, "hint:")
	if env.synth.Calls() != 0 {
		t.Fatal("synthesizer must not be called without a credential")
	}

	env.mustRun(t, "settings", "credential", "stored-key")
	out = env.mustRun(t, "settings", "credential")
	requireContains(t, out, "Credential source: stored")
	env.mustRun(t, "audio")
	if env.synth.Calls() != 1 {
		t.Fatalf("expected synthesis after storing credential, got %d", env.synth.Calls())
	}
}

func TestRewrite(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "--sample")

	out := env.mustRun(t, "rewrite", "s2", "--mood", "spooky")
	requireContains(t, out, "The wolf grinned in the dark.")
	requireContains(t, env.textGen.LastPrompt(), `"Spooky" mood`)

	out = env.mustRun(t, "segment", "show", "s2")
	requireContains(t, out, "Mood:      Spooky")

	env.textGen.Reply = "   "
	if _, _, err := env.run(t, "rewrite", "s2"); err == nil {
		t.Fatal("expected empty reply to fail")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "--sample")

	target := filepath.Join(t.TempDir(), "story.yaml")
	env.mustRun(t, "export", "--output", target)
	env.mustRun(t, "init", "--force")
	if views := listSegments(t, env); len(views) != 0 {
		t.Fatalf("expected empty story, got %d", len(views))
	}

	out := env.mustRun(t, "import", target)
	requireContains(t, out, "Imported 3 segments")

	stdout := env.mustRun(t, "export", "--format", "json")
	out, _, err := env.runWithInput(t, stdout, "import", "-")
	if err != nil {
		t.Fatalf("import from stdin: %v", err)
	}
	requireContains(t, out, "Imported 3 segments")

	if _, _, err := env.runWithInput(t, `{"story":{"segments":{"a":{"id":"b"}}}}`, "import", "-"); err == nil {
		t.Fatal("expected invalid story to be rejected")
	}
}

func TestIngestAndLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	testsupport.WriteImage(t, filepath.Join(dir, "page1.png"))
	manifest := testsupport.WriteFile(t, filepath.Join(dir, "pages.yaml"), []byte(`pages:
  - name: page1.png
    text: Once upon a time.
    mood: whimsical
    image: page1.png
  - name: page2.png
    text: The end.
    image: missing.png
`))

	out, _, err := env.run(t, "ingest", manifest)
	if err == nil {
		t.Fatal("expected ingest to report the failed entry")
	}
	requireContains(t, out, "Created 1 segments, 1 entries failed")

	out = env.mustRun(t, "--json", "library", "list")
	var files []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("decode library: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 library files, got %d", len(files))
	}
	var analyzed, failed string
	for _, f := range files {
		switch f.Status {
		case "analyzed":
			analyzed = f.ID
		case "error":
			failed = f.ID
		}
	}
	if analyzed == "" || failed == "" {
		t.Fatalf("unexpected statuses %+v", files)
	}

	out = env.mustRun(t, "library", "use", analyzed)
	requireContains(t, out, "Created segment")
	if views := listSegments(t, env); len(views) != 2 || views[1].Mood != "Whimsical" {
		t.Fatalf("unexpected segments %+v", views)
	}
	if _, _, err := env.run(t, "library", "use", failed); err == nil {
		t.Fatal("expected use of errored file to fail")
	}
	env.mustRun(t, "library", "delete", failed)
}

func TestSettingsTheme(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "settings", "theme")
	requireContains(t, out, "Theme: dark")
	out = env.mustRun(t, "settings", "theme", "toggle")
	requireContains(t, out, "Theme: light")
	out = env.mustRun(t, "settings", "theme")
	requireContains(t, out, "Theme: light")
	if _, _, err := env.run(t, "settings", "theme", "sepia"); err == nil {
		t.Fatal("expected unknown theme to fail")
	}
}

func TestStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "init", "--sample")

	out := env.mustRun(t, "status", "--offline")
	requireContains(t, out, "== Checks ==")
	requireContains(t, out, "Data directory")
	requireContains(t, out, "Segments:")
	requireContains(t, out, "3 (beginning 1, choice 1, narration 1)")
	requireContains(t, out, "0 of 3 segments")
	if strings.Contains(out, "Gemini") {
		t.Fatal("offline status must skip the service check")
	}
}

func TestRenderStatusColorsWarnings(t *testing.T) {
	checks := []preflight.Result{{Name: "Gemini", Detail: "auth failed"}}
	lines := renderStatus(checks, studio.Summary{CredentialSource: "none"}, true)
	found := false
	for _, line := range lines {
		if strings.Contains(line, "Gemini") {
			found = true
			if !strings.HasPrefix(line, ansiYellow) || !strings.Contains(line, "[WARN] auth failed") {
				t.Fatalf("unexpected line %q", line)
			}
		}
	}
	if !found {
		t.Fatal("missing Gemini line")
	}
}
