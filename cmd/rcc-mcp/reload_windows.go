//go:build windows

package main

import "log/slog"

func startSettingsReloader(_ *handler, _ string, _ *slog.Logger) {
	// SIGHUP is not available on Windows. Settings changes require a restart.
}
