package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/fileutil"
	"tapedeck/internal/logging"
	"tapedeck/internal/pngchunk"
	"tapedeck/internal/textutil"
)

const lockRetryDelay = 50 * time.Millisecond

// Import reads the cartridge at path and adds it to the library. When a
// cartridge with identical bytes is already cataloged, the existing entry is
// returned and added is false.
func (s *Store) Import(ctx context.Context, path string) (entry *Entry, added bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read cartridge: %w", err)
	}
	source, err := filepath.Abs(path)
	if err != nil {
		source = path
	}
	return s.ImportBytes(ctx, data, source)
}

// ImportBytes catalogs an in-memory cartridge. sourcePath is informational.
func (s *Store) ImportBytes(ctx context.Context, data []byte, sourcePath string) (*Entry, bool, error) {
	ctx = ensureContext(ctx)

	env, shape, err := cartridge.ReadEnvelope(data, cartridge.WithStrictCRC(s.strictCRC))
	if err != nil {
		return nil, false, fmt.Errorf("read tape: %w", err)
	}
	header, err := pngchunk.ReadHeader(data)
	if err != nil {
		return nil, false, fmt.Errorf("read header: %w", err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	digest := fileutil.SHA256Hex(data)
	existing, err := s.FindByDigest(ctx, digest)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.tapeLogger(logging.WithTapeID(ctx, existing.ID)).Debug("cartridge already cataloged",
			logging.FieldPath, sourcePath,
		)
		return existing, false, nil
	}

	label := textutil.NormalizeLabel(env.Meta.Label)
	entry := &Entry{
		ID:         uuid.NewString(),
		Label:      label,
		Version:    env.Meta.Version,
		Shape:      string(shape),
		SHA256:     digest,
		SourcePath: sourcePath,
		Size:       int64(len(data)),
		Width:      int(header.Width),
		Height:     int(header.Height),
		HistoryLen: len(env.EngineState.History),
		Status:     env.EngineState.StatusLabel,
		ImportedAt: time.Now().UTC(),
	}
	ctx = logging.WithTapeID(ctx, entry.ID)
	if created, ok := env.Meta.Created(); ok {
		entry.CreatedAt = created.UTC()
	}
	entry.Path = filepath.Join(s.tapesDir, fmt.Sprintf("%s-%s.png", textutil.SanitizeToken(label), entry.ShortID()))

	if err := os.MkdirAll(s.tapesDir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create tapes directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(data, entry.Path); err != nil {
		return nil, false, fmt.Errorf("copy cartridge: %w", err)
	}
	if err := s.Add(ctx, entry); err != nil {
		_ = os.Remove(entry.Path)
		return nil, false, err
	}

	s.tapeLogger(ctx).Info("cartridge imported",
		logging.FieldPath, entry.Path,
		logging.FieldBytes, entry.Size,
		"label", entry.Label,
		"shape", entry.Shape,
	)
	return entry, true, nil
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	fileLock := flock.New(s.lockPath)
	ok, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !ok {
		return nil, errors.New("library lock held by another process")
	}
	return func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.Warn("release library lock", logging.Error(err))
		}
	}, nil
}
