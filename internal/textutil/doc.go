// Package textutil normalizes tape labels and derives filesystem-safe tokens
// from them.
//
// Labels arrive from browser sessions in whatever Unicode form the user's
// input method produced, so they are normalized to NFC before they are stored
// or compared. Display titles use language-neutral title casing.
package textutil
