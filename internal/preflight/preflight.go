// Package preflight runs startup environment checks for the daemon.
//
// Checks are advisory: failures are logged so the operator knows what is
// degraded, but they never block daemon start. A field device with a full
// disk should still accept mutations into whatever space remains.
package preflight

import (
	"context"

	"fieldsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Data disk space", cfg.Paths.DataDir),
	}

	if cfg.Remote.BaseURL != "" {
		results = append(results, CheckRemote(ctx, cfg))
	}

	return results
}
