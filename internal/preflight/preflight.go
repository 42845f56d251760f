package preflight

import (
	"context"

	"captionary/internal/config"
	"captionary/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Warning marks a passed check that deserves attention.
	Warning bool
	Detail  string
}

// RunAll executes every readiness check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckServer(ctx, cfg.Server.URL)}
	results = append(results, CheckDialog(cfg.Native.DialogCommand, cfg.Native.Enabled))
	results = append(results, CheckDirectoryAccess("Download directory", cfg.Delivery.DownloadDir, true))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir, false))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, false))
	return results
}

// Ready reports whether every result passed.
func Ready(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// CheckDialog reports whether the native dialog helper can be used. A missing
// helper is a warning: delivery falls back to the download directory.
func CheckDialog(command string, enabled bool) Result {
	const name = "Native dialog"
	status := deps.Check(deps.Requirement{
		Name:        name,
		Command:     command,
		Description: "Native file picker and save dialog",
		Optional:    true,
		Disabled:    !enabled,
	})
	switch {
	case status.Available && !graphicalSession():
		return Result{Name: name, Passed: true, Warning: true, Detail: status.Path + " (no graphical session, using download directory)"}
	case status.Available:
		return Result{Name: name, Passed: true, Detail: status.Path}
	default:
		return Result{Name: name, Passed: true, Warning: true, Detail: status.Detail + " (using download directory)"}
	}
}
