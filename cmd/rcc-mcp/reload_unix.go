//go:build !windows

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// startSettingsReloader re-reads the settings file on SIGHUP.
func startSettingsReloader(h *handler, path string, logger *slog.Logger) {
	sighupChan := make(chan os.Signal, 1)
	signal.Notify(sighupChan, syscall.SIGHUP)
	go func() {
		for range sighupChan {
			if err := h.reloadSettings(path); err != nil {
				logger.Error("settings reload failed", "path", path, "err", err)
				continue
			}
			logger.Info("settings reloaded", "path", path)
		}
	}()
}
