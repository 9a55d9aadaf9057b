// Package library catalogs tape cartridges in SQLite and keeps a copy of each
// cartridge under the library directory.
//
// The Store manages the database connection, schema initialization, and the
// tapes table. Import is the only path that writes cartridge files: it
// extracts and normalizes the payload, copies the bytes into tapes/ and
// records an Entry keyed by a random UUID. Entries are deduplicated by the
// SHA256 digest of the cartridge bytes.
//
// Imports across processes are serialized with an advisory file lock on
// library.lock. Readers never take the lock.
//
// Like the rest of the on-disk state, the schema is versioned in schema.go;
// a mismatched database must be deleted and re-imported.
package library
