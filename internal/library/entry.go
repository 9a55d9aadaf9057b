package library

import (
	"database/sql"
	"errors"
	"time"
)

// Entry is one cataloged cartridge.
type Entry struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Version    string    `json:"version"`
	Shape      string    `json:"shape"`
	SHA256     string    `json:"sha256"`
	Path       string    `json:"path"`
	SourcePath string    `json:"source_path,omitempty"`
	Size       int64     `json:"size_bytes"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	HistoryLen int       `json:"history_len"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	ImportedAt time.Time `json:"imported_at"`
}

// ShortID is the eight-character id prefix used in file names and tables.
func (e *Entry) ShortID() string {
	if len(e.ID) < 8 {
		return e.ID
	}
	return e.ID[:8]
}

const entryColumns = "id, label, version, shape, sha256, path, source_path, size_bytes, width, height, history_len, status, created_at, imported_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		sourcePath  sql.NullString
		status      sql.NullString
		createdRaw  sql.NullString
		importedRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Label,
		&entry.Version,
		&entry.Shape,
		&entry.SHA256,
		&entry.Path,
		&sourcePath,
		&entry.Size,
		&entry.Width,
		&entry.Height,
		&entry.HistoryLen,
		&status,
		&createdRaw,
		&importedRaw,
	); err != nil {
		return nil, err
	}
	entry.SourcePath = sourcePath.String
	entry.Status = status.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if imported, err := parseTimeString(importedRaw); err == nil {
		entry.ImportedAt = imported
	}
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
