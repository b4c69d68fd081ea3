package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrNetwork           = errors.New("network failure")
	ErrEmptyResponse     = errors.New("empty response")
	ErrDecode            = errors.New("decode failure")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short machine-readable label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrNetwork):
		return "network_failure"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrDecode):
		return "decode_failure"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Details is the user-facing breakdown of a classified error.
type Details struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorDetails classifies err and attaches a remediation hint where one is
// known. It returns the zero value for nil.
func ErrorDetails(err error) Details {
	if err == nil {
		return Details{}
	}
	d := Details{Kind: Kind(err), Message: err.Error()}
	switch {
	case errors.Is(err, ErrMissingCredential):
		d.Hint = "set gemini.api_key, export GEMINI_API_KEY, or run `zenstudio settings credential`"
	case errors.Is(err, ErrNetwork):
		d.Hint = "check connectivity and gemini.base_url"
	case errors.Is(err, ErrConfiguration):
		d.Hint = "run `zenstudio config show` to inspect the effective configuration"
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrDecode):
		d.Hint = "the service returned unusable output; retry or try another voice"
	}
	return d
}
