package preflight

import (
	"context"

	"tvshows/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes all applicable preflight checks for the given config. plex
// may be nil when the Plex client could not be constructed.
func RunAll(ctx context.Context, cfg *config.Config, plex PlexChecker) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Shows directory", cfg.ShowsDir),
		CheckDirectoryAccess("State directory", cfg.StateDir),
	}

	if cfg.PlexEnabled() {
		results = append(results, CheckPlex(ctx, plex))
	} else {
		results = append(results, Result{Name: "Plex", Skipped: true, Detail: "Disabled"})
	}

	if len(cfg.Shows) > 0 {
		results = append(results, CheckTVMaze(ctx, cfg.TVMaze.BaseURL, cfg.Shows[0].TVMazeID))
	} else {
		results = append(results, Result{Name: "TVmaze", Skipped: true, Detail: "No shows configured"})
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, Result{Name: "Notifications", Passed: true, Detail: cfg.Notifications.NtfyTopic})
	} else {
		results = append(results, Result{Name: "Notifications", Skipped: true, Detail: "Disabled"})
	}

	return results
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
