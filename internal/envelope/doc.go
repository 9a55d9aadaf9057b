// Package envelope models the session state carried inside a cartridge and
// normalizes the shapes older writers produced.
//
// Current writers emit {meta, engineState}. The oldest writers emitted the
// bare engine state with no wrapper. Classify resolves which shape a payload
// has once, at the boundary, and Normalize always returns a full Envelope so
// the rest of the program never branches on key presence. Field names are
// written in camelCase; snake_case spellings are accepted on read, and fields
// this package does not know are carried through unchanged.
package envelope
