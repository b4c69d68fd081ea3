package preflight

import (
	"context"

	"zenstudio/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Pinger verifies a credential against the speech service.
type Pinger interface {
	Ping(ctx context.Context, credential string) error
}

// RunAll executes every check for cfg. The service check is skipped when
// pinger is nil.
func RunAll(ctx context.Context, cfg *config.Config, credential string, pinger Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Asset directory", cfg.Paths.AssetDir),
	}
	if pinger != nil {
		results = append(results, CheckGemini(ctx, pinger, credential))
	}
	results = append(results, CheckFallbackCommand(cfg.Fallback.Command))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
