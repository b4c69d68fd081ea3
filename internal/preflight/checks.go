package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"zenstudio/internal/services"
	"zenstudio/internal/services/gemini"
)

const geminiCheckTimeout = 15 * time.Second

// CheckGemini verifies the service is reachable and accepts the credential.
// It makes a single attempt.
func CheckGemini(ctx context.Context, pinger Pinger, credential string) Result {
	const name = "Gemini"

	if strings.TrimSpace(credential) == "" {
		return Result{Name: name, Detail: "API key missing (audio falls back to local speech)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, geminiCheckTimeout)
	defer cancel()

	if err := pinger.Ping(checkCtx, credential); err != nil {
		return Result{Name: name, Detail: summarizeGeminiError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFallbackCommand verifies the local speech command resolves on PATH.
// An unset command passes: failed generations then print the text instead.
func CheckFallbackCommand(argv []string) Result {
	const name = "Fallback speech"

	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Result{Name: name, Passed: true, Detail: "not configured (text is printed)"}
	}
	cmd := strings.TrimSpace(argv[0])
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", cmd)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// summarizeGeminiError produces a human-readable summary for health check failures.
func summarizeGeminiError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	switch gemini.StatusCode(err) {
	case 400, 401, 403:
		return "auth failed (invalid api key)"
	}
	if errors.Is(err, services.ErrMissingCredential) {
		return "API key missing"
	}
	return err.Error()
}
