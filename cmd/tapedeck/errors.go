package main

import (
	"errors"
	"fmt"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/library"
)

// describeError appends a remediation hint to errors users commonly hit.
func describeError(err error) string {
	var hint string
	switch cartridge.KindOf(err) {
	case cartridge.KindNotAPNG:
		hint = "the file does not start with a PNG signature"
	case cartridge.KindPayloadNotFound:
		hint = "the image is a plain PNG; use `tapedeck embed` to create a cartridge"
	case cartridge.KindCRCMismatch:
		hint = "rerun without --strict to ignore chunk checksums"
	case cartridge.KindNoTerminalChunk, cartridge.KindUnexpectedEnd:
		hint = "the file appears truncated"
	}
	if hint == "" && errors.Is(err, library.ErrSchemaMismatch) {
		hint = "delete the library database and re-import your cartridges"
	}
	if hint == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v (%s)", err, hint)
}
