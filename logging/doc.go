// Package logging provides a minimal logging interface and adapters for the runtime.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine, composer, dispatcher and gateway use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RuntimeLogger with component/room context and domain helpers
//   - Calls, With, ForComponent and ForRoom, which apply those helpers to any Logger
//   - NoOpLogger for silent operation (testing, headless benchmark runs)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	rt := engine.New(func(o *engine.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
