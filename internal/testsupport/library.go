package testsupport

import (
	"testing"

	"tapedeck/internal/config"
	"tapedeck/internal/library"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config, opts ...library.Option) *library.Store {
	t.Helper()

	store, err := library.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
