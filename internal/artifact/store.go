package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a flat, filename-addressed file area for one artifact kind
// (raw uploads or rendered workbooks). Writes are scoped per job via
// unique generated names, so concurrent jobs never collide and no
// cross-job locking is needed.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore roots a store at dir, creating it if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves a stored filename to its on-disk path. Filenames with
// separators or traversal segments are rejected.
func (s *Store) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) ||
		strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid artifact filename %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// Write stores content under filename, replacing any previous content.
func (s *Store) Write(filename string, content []byte) (string, error) {
	path, err := s.Path(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", filename, err)
	}
	s.log.Debug("artifact.write", "file", filename, "bytes", len(content))
	return path, nil
}

// Exists reports whether filename is present.
func (s *Store) Exists(filename string) bool {
	path, err := s.Path(filename)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Read returns the stored content.
func (s *Store) Read(filename string) ([]byte, error) {
	path, err := s.Path(filename)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Delete removes filename. Idempotent: deleting an absent artifact is
// not an error.
func (s *Store) Delete(filename string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact %s: %w", filename, err)
	}
	s.log.Debug("artifact.delete", "file", filename)
	return nil
}

// UniqueName derives a collision-free stored name from an uploaded
// filename: the sanitized stem plus a timestamp, e.g.
// "Q4_Report_20260829_153002_extracted.xlsx".
func UniqueName(original, suffix, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, stem)
	if stem == "" {
		stem = "document"
	}
	// Timestamp plus a short random fragment: two same-named uploads in
	// the same second must still get distinct artifacts.
	name := stem + "_" + time.Now().UTC().Format("20060102_150405") + "_" + uuid.NewString()[:8]
	if suffix != "" {
		name += "_" + suffix
	}
	return name + ext
}
