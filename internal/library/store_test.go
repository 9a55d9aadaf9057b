package library_test

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/envelope"
	"tapedeck/internal/library"
	"tapedeck/internal/logging"
	"tapedeck/internal/testsupport"
)

func writeCartridge(t *testing.T, dir, name string, env any) string {
	t.Helper()

	stream, err := cartridge.Embed(testsupport.PNG(t, 3, 2), env)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	return testsupport.WriteFile(t, filepath.Join(dir, name), stream)
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)

	if store.Path() != cfg.LibraryDB() {
		t.Fatalf("Path() = %s, want %s", store.Path(), cfg.LibraryDB())
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty library, got %d", len(entries))
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reopened, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.LibraryDB())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	_, err = library.Open(cfg)
	if !errors.Is(err, library.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestAddGetRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	entry := &library.Entry{
		Label:     "Hero",
		Version:   envelope.CurrentVersion,
		Shape:     string(envelope.ShapeVersioned),
		SHA256:    strings.Repeat("ab", 32),
		Path:      filepath.Join(cfg.TapesDir(), "hero.png"),
		Size:      128,
		CreatedAt: testsupport.FixedTime(),
	}
	if err := store.Add(ctx, entry); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if entry.ID == "" || entry.ImportedAt.IsZero() {
		t.Fatalf("expected generated id and import time, got %#v", entry)
	}

	got, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Label != "Hero" || got.Size != 128 {
		t.Fatalf("unexpected entry %#v", got)
	}
	if !got.CreatedAt.Equal(testsupport.FixedTime()) {
		t.Fatalf("CreatedAt = %v", got.CreatedAt)
	}
	if got.SourcePath != "" || got.Status != "" {
		t.Fatalf("expected empty nullable fields, got %#v", got)
	}

	byDigest, err := store.FindByDigest(ctx, strings.Repeat("AB", 32))
	if err != nil {
		t.Fatalf("FindByDigest: %v", err)
	}
	if byDigest == nil || byDigest.ID != entry.ID {
		t.Fatalf("FindByDigest returned %#v", byDigest)
	}

	removed, err := store.Remove(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Fatal("expected Remove to report removal")
	}
	removed, err = store.Remove(ctx, entry.ID)
	if err != nil || removed {
		t.Fatalf("second Remove = %v, %v", removed, err)
	}
	missing, err := store.Get(ctx, entry.ID)
	if err != nil || missing != nil {
		t.Fatalf("Get after remove = %#v, %v", missing, err)
	}
}

func TestAddDuplicateDigestFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	digest := strings.Repeat("cd", 32)
	first := &library.Entry{Label: "A", Version: "1.0", Shape: "versioned", SHA256: digest, Path: "a.png"}
	if err := store.Add(ctx, first); err != nil {
		t.Fatalf("Add: %v", err)
	}
	second := &library.Entry{Label: "B", Version: "1.0", Shape: "versioned", SHA256: digest, Path: "b.png"}
	if err := store.Add(ctx, second); err == nil {
		t.Fatal("expected unique constraint failure")
	}
}

func TestImportCopiesAndCatalogs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	env := envelope.Factory("Zoë Night", testsupport.FixedTime())
	env.EngineState.History = []string{"one", "two"}
	src := writeCartridge(t, t.TempDir(), "in.png", env)

	entry, added, err := store.Import(ctx, src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !added {
		t.Fatal("expected new entry")
	}
	if entry.Label != "Zoë Night" || entry.Version != envelope.CurrentVersion {
		t.Fatalf("unexpected meta %#v", entry)
	}
	if entry.Width != 3 || entry.Height != 2 || entry.HistoryLen != 2 {
		t.Fatalf("unexpected dimensions/history %#v", entry)
	}
	if entry.Status != envelope.ReadyStatus || entry.Shape != string(envelope.ShapeVersioned) {
		t.Fatalf("unexpected status/shape %#v", entry)
	}
	if !entry.CreatedAt.Equal(testsupport.FixedTime()) {
		t.Fatalf("CreatedAt = %v", entry.CreatedAt)
	}
	wantName := "zoe_night-" + entry.ShortID() + ".png"
	if filepath.Base(entry.Path) != wantName || filepath.Dir(entry.Path) != cfg.TapesDir() {
		t.Fatalf("Path = %s, want %s in %s", entry.Path, wantName, cfg.TapesDir())
	}

	original, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	copied, err := os.ReadFile(entry.Path)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(original) != string(copied) {
		t.Fatal("copy differs from source")
	}

	again, added, err := store.Import(ctx, src)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if added || again.ID != entry.ID {
		t.Fatalf("expected dedup to existing entry, got added=%v id=%s", added, again.ID)
	}

	removed, err := store.Remove(ctx, entry.ID)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if _, err := os.Stat(entry.Path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected copy removed, stat err = %v", err)
	}
}

func TestImportLegacyPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)

	legacy := []byte(`{"history":["a"],"currentBeat":null}`)
	src := writeCartridge(t, t.TempDir(), "legacy.png", json.RawMessage(legacy))

	entry, _, err := store.Import(context.Background(), src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if entry.Version != envelope.LegacyVersion || entry.Label != envelope.UnknownLabel {
		t.Fatalf("unexpected legacy meta %#v", entry)
	}
	if entry.Shape != string(envelope.ShapeLegacy) || entry.HistoryLen != 1 {
		t.Fatalf("unexpected legacy entry %#v", entry)
	}
	if !entry.CreatedAt.IsZero() {
		t.Fatalf("legacy entry should have no creation time, got %v", entry.CreatedAt)
	}
}

func TestImportRejectsPlainPNG(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	src := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "plain.png"), testsupport.MinimalPNG(t))

	_, _, err := store.Import(context.Background(), src)
	if !errors.Is(err, cartridge.ErrPayloadNotFound) {
		t.Fatalf("expected ErrPayloadNotFound, got %v", err)
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestResolvePrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"aaaa1111-0000", "aaaa2222-0000", "bbbb3333-0000"} {
		entry := &library.Entry{
			ID:         id,
			Label:      "T",
			Version:    "1.0",
			Shape:      "versioned",
			SHA256:     strings.Repeat(string(rune('a'+i)), 64),
			Path:       id + ".png",
			ImportedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Add(ctx, entry); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := store.Resolve(ctx, "bbbb")
	if err != nil || got == nil || got.ID != "bbbb3333-0000" {
		t.Fatalf("Resolve(bbbb) = %#v, %v", got, err)
	}
	got, err = store.Resolve(ctx, "aaaa2222-0000")
	if err != nil || got == nil || got.ID != "aaaa2222-0000" {
		t.Fatalf("Resolve(exact) = %#v, %v", got, err)
	}
	if _, err := store.Resolve(ctx, "aaaa"); !errors.Is(err, library.ErrAmbiguousID) {
		t.Fatalf("expected ErrAmbiguousID, got %v", err)
	}
	got, err = store.Resolve(ctx, "zzzz")
	if err != nil || got != nil {
		t.Fatalf("Resolve(zzzz) = %#v, %v", got, err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].ID != "aaaa1111-0000" || entries[2].ID != "bbbb3333-0000" {
		t.Fatalf("unexpected list order: %v", entries)
	}
}

func TestCheckDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := library.CheckDirectory(dir); err != nil {
		t.Fatalf("CheckDirectory(tempdir): %v", err)
	}

	if err := library.CheckDirectory(filepath.Join(dir, "missing")); !errors.Is(err, library.ErrDirectoryAccess) {
		t.Fatalf("expected ErrDirectoryAccess for missing dir, got %v", err)
	}

	file := testsupport.WriteFile(t, filepath.Join(dir, "file"), []byte("x"))
	if err := library.CheckDirectory(file); !errors.Is(err, library.ErrDirectoryAccess) {
		t.Fatalf("expected ErrDirectoryAccess for file, got %v", err)
	}
}

func TestImportAndRemoveLogTapeID(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	defer closer.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLibrary(t, cfg, library.WithLogger(logger))
	ctx := context.Background()

	src := writeCartridge(t, t.TempDir(), "ada.png", envelope.Factory("Ada", testsupport.FixedTime()))
	entry, _, err := store.Import(ctx, src)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := store.Remove(ctx, entry.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	tagged := map[string]bool{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		msg, _ := record["msg"].(string)
		if record[logging.FieldTapeID] == entry.ID && record[logging.FieldComponent] == "library" {
			tagged[msg] = true
		}
	}
	for _, msg := range []string{"cartridge imported", "tape removed"} {
		if !tagged[msg] {
			t.Fatalf("expected %q record tagged with tape id %s; got %q", msg, entry.ID, buf.String())
		}
	}
}
