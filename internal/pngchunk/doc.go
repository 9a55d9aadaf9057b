// Package pngchunk reads and writes the chunk layer of PNG datastreams.
//
// A PNG file is an 8-byte signature followed by length-prefixed, type-tagged,
// CRC-suffixed chunk records ending with IEND. This package computes the
// CRC-32 those records carry, serializes new chunks, and walks an in-memory
// stream lazily so callers can stop as soon as they find what they need.
// Pixel data is never decoded; every byte the package does not build itself
// is passed through untouched.
//
// Traversal is lenient by default and does not check stored CRC values,
// because carriers often arrive from third-party tools. WithVerifyCRC turns on
// strict verification.
package pngchunk
