// Package pkg provides shared utilities for the usbipbus device-side
// USB/IP bus.
//
// This package contains common functionality used across the wire,
// endpoint, conn, and bus packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for device-surface and connection errors
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component-scoped context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentBus, "device attached", "devid", 1)
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrWouldBlock) {
//	    // Retry on next poll
//	}
package pkg
