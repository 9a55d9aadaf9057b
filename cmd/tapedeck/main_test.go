package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/pngchunk"
	"tapedeck/internal/testsupport"
)

const scenarioPayload = `{"meta":{"version":"1.0","characterName":"Test"},"engineState":{"history":["hello"],"currentBeat":null}}`

func TestEmbedFactoryAndExtract(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.png"), testsupport.PNG(t, 4, 4))
	out := env.path("out.png")

	stdout, _, err := runCLI(t, []string{"embed", in, out, "--label", "  Hero  "}, env.configPath)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	requireContains(t, stdout, `factory tape "Hero"`)

	stdout, _, err = runCLI(t, []string{"extract", out}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var decoded struct {
		Meta struct {
			Version string `json:"version"`
			Label   string `json:"characterName"`
		} `json:"meta"`
		EngineState struct {
			History     []string `json:"history"`
			StatusLabel string   `json:"statusLabel"`
		} `json:"engineState"`
	}
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("decode extract output: %v (%q)", err, stdout)
	}
	if decoded.Meta.Version != "1.0" || decoded.Meta.Label != "Hero" {
		t.Fatalf("unexpected meta %+v", decoded.Meta)
	}
	if decoded.EngineState.History == nil || len(decoded.EngineState.History) != 0 {
		t.Fatalf("expected empty history, got %v", decoded.EngineState.History)
	}
	if decoded.EngineState.StatusLabel != "Ready" {
		t.Fatalf("unexpected status %q", decoded.EngineState.StatusLabel)
	}

	w, h := testsupport.DecodeConfig(t, mustRead(t, out))
	if w != 4 || h != 4 {
		t.Fatalf("decoded dimensions %dx%d", w, h)
	}
}

func TestEmbedPayloadAndExtractRaw(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.png"), testsupport.MinimalPNG(t))
	payload := testsupport.WriteFile(t, env.path("tape.json"), []byte(scenarioPayload))
	out := env.path("out.png")

	if _, _, err := runCLI(t, []string{"embed", in, out, "--payload", payload}, env.configPath); err != nil {
		t.Fatalf("embed: %v", err)
	}

	raw, err := cartridge.Extract(mustRead(t, out))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(raw) != scenarioPayload {
		t.Fatalf("stored payload %s", raw)
	}

	stdout, _, err := runCLI(t, []string{"extract", "--raw", out}, env.configPath)
	if err != nil {
		t.Fatalf("extract --raw: %v", err)
	}
	requireContains(t, stdout, `"characterName": "Test"`)
}

func TestEmbedRejectsLabelWithPayload(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.png"), testsupport.MinimalPNG(t))
	payload := testsupport.WriteFile(t, env.path("tape.json"), []byte(scenarioPayload))

	_, _, err := runCLI(t, []string{"embed", in, env.path("out.png"), "--payload", payload, "--label", "X"}, env.configPath)
	if err == nil {
		t.Fatal("expected mutually exclusive flag error")
	}
}

func TestEmbedRejectsNonPNG(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.txt"), []byte("definitely not a png"))

	_, _, err := runCLI(t, []string{"embed", in, env.path("out.png")}, env.configPath)
	if !errors.Is(err, cartridge.ErrNotAPNG) {
		t.Fatalf("expected ErrNotAPNG, got %v", err)
	}
	if _, statErr := os.Stat(env.path("out.png")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("output should not be written, stat err = %v", statErr)
	}
}

func TestReembedReplacesByDefault(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.png"), testsupport.MinimalPNG(t))
	first := env.path("first.png")
	second := env.path("second.png")

	if _, _, err := runCLI(t, []string{"embed", in, first, "--label", "Old"}, env.configPath); err != nil {
		t.Fatalf("embed first: %v", err)
	}
	if _, _, err := runCLI(t, []string{"embed", first, second, "--label", "New"}, env.configPath); err != nil {
		t.Fatalf("embed second: %v", err)
	}
	stdout, _, err := runCLI(t, []string{"inspect", "--json", second}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var report inspectReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode inspect: %v", err)
	}
	tapes := 0
	for _, c := range report.Chunks {
		if c.Keyword == cartridge.Keyword {
			tapes++
		}
	}
	if tapes != 1 {
		t.Fatalf("expected one tape chunk after replace, found %d", tapes)
	}
	if report.Tape == nil || report.Tape.Label != "New" {
		t.Fatalf("unexpected tape %+v", report.Tape)
	}

	third := env.path("third.png")
	if _, _, err := runCLI(t, []string{"embed", second, third, "--label", "Newest", "--replace=false"}, env.configPath); err != nil {
		t.Fatalf("embed third: %v", err)
	}
	stdout, _, err = runCLI(t, []string{"extract", third}, env.configPath)
	if err != nil {
		t.Fatalf("extract third: %v", err)
	}
	requireContains(t, stdout, `"characterName": "New"`)
}

func TestInspectTable(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("plain.png"), testsupport.PNG(t, 2, 3))

	stdout, _, err := runCLI(t, []string{"inspect", in}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, stdout, "Image:  2x3, 8-bit")
	requireContains(t, stdout, "Tape:   none")
	requireContains(t, stdout, "IHDR")
	requireContains(t, stdout, "IEND")
	if strings.Contains(stdout, "\x1b[") {
		t.Fatalf("expected no color codes for non-terminal output: %q", stdout)
	}
}

func TestInspectErrorsCarryHints(t *testing.T) {
	env := setupCLITestEnv(t)
	carrier := testsupport.MinimalPNG(t)
	badCRC := append([]byte(nil), carrier...)
	// Last byte of the IHDR CRC.
	badCRC[len(pngchunk.Signature)+pngchunk.Overhead+13-1] ^= 0xff

	tests := []struct {
		name string
		data []byte
		args []string
		kind cartridge.Kind
		hint string
	}{
		{"not png", []byte("GIF89a"), nil, cartridge.KindNotAPNG, "PNG signature"},
		{"truncated", carrier[:len(carrier)-5], nil, cartridge.KindUnexpectedEnd, "truncated"},
		{"no terminal", carrier[:len(carrier)-pngchunk.Overhead], nil, cartridge.KindNoTerminalChunk, "truncated"},
		{"bad crc", badCRC, []string{"--strict"}, cartridge.KindCRCMismatch, "without --strict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testsupport.WriteFile(t, env.path(strings.ReplaceAll(tt.name, " ", "-")+".png"), tt.data)
			args := append([]string{"inspect", in}, tt.args...)
			_, _, err := runCLI(t, args, env.configPath)
			if err == nil {
				t.Fatal("expected inspect to fail")
			}
			if got := cartridge.KindOf(err); got != tt.kind {
				t.Fatalf("kind = %q, want %q (%v)", got, tt.kind, err)
			}
			requireContains(t, describeError(err), tt.hint)
		})
	}
}

func TestInspectTypeFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("plain.png"), testsupport.PNG(t, 4, 4))

	stdout, _, err := runCLI(t, []string{"inspect", "--json", "--type", "IDAT", in}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var report inspectReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode inspect: %v", err)
	}
	if len(report.Chunks) == 0 || len(report.Chunks) != report.ImageData.Chunks {
		t.Fatalf("expected only IDAT chunks, got %+v (image data %+v)", report.Chunks, report.ImageData)
	}
	for _, c := range report.Chunks {
		if c.Type != "IDAT" {
			t.Fatalf("unexpected chunk %s in filtered output", c.Type)
		}
	}

	if _, _, err := runCLI(t, []string{"inspect", "--type", "IDATX", in}, env.configPath); err == nil {
		t.Fatal("expected invalid chunk type to be rejected")
	}
}

func TestExtractPlainPNGFails(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("plain.png"), testsupport.MinimalPNG(t))

	_, _, err := runCLI(t, []string{"extract", in}, env.configPath)
	if !errors.Is(err, cartridge.ErrPayloadNotFound) {
		t.Fatalf("expected ErrPayloadNotFound, got %v", err)
	}
	requireContains(t, describeError(err), "tapedeck embed")
}

func TestStripCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	carrier := testsupport.MinimalPNG(t)
	in := testsupport.WriteFile(t, env.path("in.png"), carrier)
	tape := env.path("tape.png")
	plain := env.path("plain.png")

	if _, _, err := runCLI(t, []string{"embed", in, tape}, env.configPath); err != nil {
		t.Fatalf("embed: %v", err)
	}
	stdout, _, err := runCLI(t, []string{"strip", tape, plain}, env.configPath)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	requireContains(t, stdout, "Removed 1 tape chunk(s)")
	if string(mustRead(t, plain)) != string(carrier) {
		t.Fatal("stripped output should equal the original carrier")
	}
}

func TestLibraryWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.png"), testsupport.MinimalPNG(t))
	tape := env.path("tape.png")

	stdout, _, err := runCLI(t, []string{"embed", in, tape, "--label", "Knight", "--catalog"}, env.configPath)
	if err != nil {
		t.Fatalf("embed --catalog: %v", err)
	}
	requireContains(t, stdout, "Cataloged as ")

	stdout, _, err = runCLI(t, []string{"library", "import", tape}, env.configPath)
	if err != nil {
		t.Fatalf("library import: %v", err)
	}
	requireContains(t, stdout, "already cataloged as")

	stdout, _, err = runCLI(t, []string{"library", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	var entries []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(entries) != 1 || entries[0].Label != "Knight" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if filepath.Dir(entries[0].Path) != env.cfg.TapesDir() {
		t.Fatalf("copy stored outside tapes dir: %s", entries[0].Path)
	}

	shortID := entries[0].ID[:8]
	stdout, _, err = runCLI(t, []string{"library", "show", shortID}, env.configPath)
	if err != nil {
		t.Fatalf("library show: %v", err)
	}
	requireContains(t, stdout, entries[0].ID)
	requireContains(t, stdout, "Readable:  yes")

	stdout, _, err = runCLI(t, []string{"library", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("library list table: %v", err)
	}
	requireContains(t, stdout, shortID)

	if _, _, err := runCLI(t, []string{"library", "remove", shortID}, env.configPath); err != nil {
		t.Fatalf("library remove: %v", err)
	}
	logContent := string(mustRead(t, env.cfg.LogFile()))
	requireContains(t, logContent, `"msg":"tape removed"`)
	requireContains(t, logContent, `"tape_id":"`+entries[0].ID+`"`)
	stdout, _, err = runCLI(t, []string{"library", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("library list after remove: %v", err)
	}
	requireContains(t, stdout, "Library is empty")
}

func TestLibraryShowWarnsWhenCopyMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	in := testsupport.WriteFile(t, env.path("in.png"), testsupport.MinimalPNG(t))
	tape := env.path("tape.png")
	if _, _, err := runCLI(t, []string{"embed", in, tape, "--label", "Ghost", "--catalog"}, env.configPath); err != nil {
		t.Fatalf("embed --catalog: %v", err)
	}
	stdout, _, err := runCLI(t, []string{"library", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("library list: %v", err)
	}
	var entries []struct {
		ID   string `json:"id"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(stdout), &entries); err != nil || len(entries) != 1 {
		t.Fatalf("decode list: %v (%s)", err, stdout)
	}
	if err := os.Remove(entries[0].Path); err != nil {
		t.Fatalf("remove stored copy: %v", err)
	}

	stdout, stderr, err := runCLI(t, []string{"library", "show", entries[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("library show: %v", err)
	}
	requireContains(t, stdout, "Readable:  no")
	requireContains(t, stderr, "stored cartridge unreadable")
	requireContains(t, stderr, "tape_id="+entries[0].ID)
}

func TestLibraryImportReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	plain := testsupport.WriteFile(t, env.path("plain.png"), testsupport.MinimalPNG(t))

	stdout, _, err := runCLI(t, []string{"library", "import", plain}, env.configPath)
	if err == nil {
		t.Fatal("expected import failure")
	}
	requireContains(t, stdout, "no tape payload found")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
