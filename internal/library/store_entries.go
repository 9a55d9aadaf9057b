package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"tapedeck/internal/logging"
)

// ErrAmbiguousID is returned by Resolve when a prefix matches several entries.
var ErrAmbiguousID = errors.New("ambiguous tape id")

// Add records entry. A missing ID is filled with a new UUID and a zero
// ImportedAt with the current time.
func (s *Store) Add(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("add entry: nil entry")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ImportedAt.IsZero() {
		entry.ImportedAt = time.Now().UTC()
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO tapes (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Label,
		entry.Version,
		entry.Shape,
		entry.SHA256,
		entry.Path,
		nullableString(entry.SourcePath),
		entry.Size,
		entry.Width,
		entry.Height,
		entry.HistoryLen,
		nullableString(entry.Status),
		nullableTime(entry.CreatedAt),
		entry.ImportedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert tape: %w", err)
	}
	return nil
}

// Get fetches an entry by id. It returns nil, nil when no entry matches.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM tapes WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tape: %w", err)
	}
	return entry, nil
}

// Resolve finds the entry whose id equals ref or starts with it.
func (s *Store) Resolve(ctx context.Context, ref string) (*Entry, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, nil
	}
	if entry, err := s.Get(ctx, ref); err != nil || entry != nil {
		return entry, err
	}

	pattern := strings.NewReplacer("%", `\%`, "_", `\_`, `\`, `\\`).Replace(ref) + "%"
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+entryColumns+` FROM tapes WHERE id LIKE ? ESCAPE '\' ORDER BY imported_at LIMIT 2`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve tape: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("resolve tape: %w", err)
	}
	switch len(entries) {
	case 0:
		return nil, nil
	case 1:
		return entries[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, ref)
	}
}

// FindByDigest returns the entry whose cartridge bytes hash to sha.
func (s *Store) FindByDigest(ctx context.Context, sha string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM tapes WHERE sha256 = ?`, strings.ToLower(sha))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by digest: %w", err)
	}
	return entry, nil
}

// List returns every entry in import order.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+entryColumns+` FROM tapes ORDER BY imported_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tapes: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("list tapes: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry with id along with its cartridge copy and reports
// whether the entry existed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	entry, err := s.Get(ctx, id)
	if err != nil || entry == nil {
		return false, err
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM tapes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete tape: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	logger := s.tapeLogger(logging.WithTapeID(ctx, entry.ID))
	if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("cartridge copy not removed",
			logging.FieldPath, entry.Path,
			logging.Error(err),
		)
	}
	logger.Info("tape removed", "label", entry.Label)
	return true, nil
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
