package preflight

import (
	"context"

	"subforge/internal/config"
	"subforge/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options selects the checks RunAll performs.
type Options struct {
	// CheckLLM issues a live request against the translation backend.
	CheckLLM bool
}

// RunAll executes the preflight checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	if opts.CheckLLM {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.LLM))
	}
	return results
}

// Failed returns the names of non-optional checks that did not pass.
func Failed(results []Result) []string {
	var names []string
	for _, r := range results {
		if !r.Passed && !r.Optional {
			names = append(names, r.Name)
		}
	}
	return names
}

// CheckSystemDeps evaluates the external binaries subforge commands run.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
