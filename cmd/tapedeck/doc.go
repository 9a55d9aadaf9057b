// Package main hosts the tapedeck CLI entrypoint and command graph.
//
// The Cobra-based command tree embeds factory-preset or custom envelopes into
// PNG cartridges, extracts and normalizes them, lists chunk layouts, and
// maintains the local tape library. Configuration is resolved lazily so
// commands that do not need it (config init) work on a fresh machine.
//
// Keep this package lean: the codec lives in internal/cartridge and the
// catalog in internal/library; commands here only translate flags and render
// output.
package main
