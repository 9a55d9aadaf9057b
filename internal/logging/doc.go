// Package logging assembles structured slog loggers used across tapedeck.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the log file, and stamps every record of one CLI invocation with a run ID
// so interleaved runs can be told apart in the file. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// The cartridge codec itself never logs; callers log around it.
package logging
