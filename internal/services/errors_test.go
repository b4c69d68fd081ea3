package services_test

import (
	"errors"
	"strings"
	"testing"

	"zenstudio/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrNetwork, "gemini", "synthesize", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"gemini", "synthesize", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrMissingCredential, "audio", "", "", nil)
	if !errors.Is(err, services.ErrMissingCredential) {
		t.Fatalf("expected marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "audio") {
		t.Fatalf("expected component in %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	cases := map[error]string{
		nil: "",
		services.Wrap(services.ErrDecode, "audio", "decode", "bad base64", nil):  "decode_failure",
		services.Wrap(services.ErrEmptyResponse, "gemini", "", "", nil):          "empty_response",
		services.Wrap(services.ErrMissingCredential, "rewrite", "", "", nil):     "missing_credential",
		errors.New("other"): "unknown",
	}
	for err, want := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestErrorDetails(t *testing.T) {
	if d := services.ErrorDetails(nil); d != (services.Details{}) {
		t.Fatalf("expected zero details for nil, got %+v", d)
	}
	err := services.Wrap(services.ErrMissingCredential, "audiogen", "ensure", "api key required", nil)
	d := services.ErrorDetails(err)
	if d.Kind != "missing_credential" {
		t.Fatalf("unexpected kind %q", d.Kind)
	}
	if d.Hint == "" || d.Message != err.Error() {
		t.Fatalf("unexpected details %+v", d)
	}
	if d := services.ErrorDetails(services.Wrap(services.ErrNotFound, "story", "get", "", nil)); d.Hint != "" {
		t.Fatalf("expected no hint for not found, got %q", d.Hint)
	}
}
