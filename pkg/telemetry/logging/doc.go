// Package logging constructs the process-wide structured logger.
//
// The runtime logs through log/slog everywhere; this package only decides
// the handler (JSON or text), the minimum level, and the output writer,
// based on configuration.
package logging
