// Package cartridge stores session state inside PNG images.
//
// A cartridge (or tape) is an ordinary PNG carrying one extra tEXt chunk,
// inserted just before IEND, whose keyword is the fixed Keyword and whose
// value is the compact JSON encoding of the session envelope. Image viewers
// ignore the chunk; Extract finds it again.
//
// Embed and Extract are pure functions over byte slices: they never modify
// their input, hold no state beyond the CRC table in pngchunk, and are safe
// for concurrent use. They do not log. Every failure is a *Error whose Kind
// identifies one of a small set of deterministic, non-retryable causes.
package cartridge
