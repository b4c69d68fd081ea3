package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zenstudio/internal/services/gemini"
	"zenstudio/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func newGeminiServer(t *testing.T, key string) *gemini.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != key {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return gemini.NewClient(gemini.Config{BaseURL: srv.URL, TTSModel: "tts"})
}

func TestCheckGemini_OK(t *testing.T) {
	client := newGeminiServer(t, "good-key")
	result := CheckGemini(context.Background(), client, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_BadKey(t *testing.T) {
	client := newGeminiServer(t, "good-key")
	result := CheckGemini(context.Background(), client, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckGemini_MissingKey(t *testing.T) {
	client := newGeminiServer(t, "good-key")
	result := CheckGemini(context.Background(), client, "  ")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckFallbackCommand(t *testing.T) {
	if r := CheckFallbackCommand(nil); !r.Passed {
		t.Fatalf("unset command should pass, got %s", r.Detail)
	}
	if r := CheckFallbackCommand([]string{"zenstudio-missing-binary-xyz"}); r.Passed {
		t.Fatal("expected failure for missing binary")
	}
	if r := CheckFallbackCommand([]string{"sh", "-c", "true"}); !r.Passed {
		t.Fatalf("expected sh to resolve, got %s", r.Detail)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := newGeminiServer(t, "test")

	results := RunAll(context.Background(), cfg, "test", client)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	results = RunAll(context.Background(), cfg, "", nil)
	if len(results) != 3 {
		t.Fatalf("expected service check skipped, got %d results", len(results))
	}
}
