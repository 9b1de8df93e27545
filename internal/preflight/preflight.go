package preflight

import (
	"context"
	"strings"

	"ballotforge/internal/config"
)

// Result reports the outcome of a single preflight check. Optional checks
// cover features a task may not use, such as audio export.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if local, ok := cfg.LocalArtifactsDir(); ok {
		results = append(results, CheckDirectoryAccess("Artifacts directory", local))
	}
	if len(cfg.Export.GrayscaleTemplates) > 0 {
		results = append(results, CheckBinary(
			"Ghostscript",
			cfg.Export.GhostscriptBinary,
			"grayscale conversion for "+strings.Join(cfg.Export.GrayscaleTemplates, ", "),
			false,
		))
	}
	results = append(results,
		CheckService(ctx, "Ballot renderer", cfg.Renderer.BaseURL),
		CheckAPIKey("Translation API key", cfg.Translation.APIKey, false),
		CheckAPIKey("Speech API key", cfg.Speech.APIKey, true),
	)
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
