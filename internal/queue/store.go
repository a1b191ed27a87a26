// Package queue persists the article queue as a single JSON document.
//
// Every write replaces the whole document: the new content goes to a temp
// file in the target directory, is synced, and is then renamed over the
// target. A crash at any point leaves either the old file or the new one.
package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by LoadExisting when the queue file is absent.
	ErrNotFound = errors.New("queue file not found")
	// ErrMalformed wraps JSON decoding failures. Malformed files are never repaired.
	ErrMalformed = errors.New("queue file is malformed")
)

const backupTimeFormat = "20060102T150405.000Z"

// Store reads and writes one queue document on disk. It does no locking;
// callers must not run two mutating operations against the same file at once.
type Store struct {
	path      string
	backupDir string
	now       func() time.Time
}

type Option func(*Store)

// WithBackupDir sets where Backup writes. Defaults to the queue file's directory.
func WithBackupDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithClock overrides the clock used to name backups.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		backupDir: filepath.Dir(path),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string { return s.path }

func (s *Store) BackupDir() string { return s.backupDir }

// Load reads the queue document. A missing file yields an empty document.
func (s *Store) Load() (Document, error) {
	doc, err := s.LoadExisting()
	if errors.Is(err, ErrNotFound) {
		return NewDocument(), nil
	}
	return doc, err
}

// LoadExisting is Load for operations that need a queue to already exist.
func (s *Store) LoadExisting() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return Document{}, fmt.Errorf("reading queue file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("%s: empty file: %w", s.path, ErrMalformed)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%s: %w: %v", s.path, ErrMalformed, err)
	}
	return doc, nil
}

// Save replaces the queue file with doc.
func (s *Store) Save(doc Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("saving queue: %w", err)
	}
	return nil
}

// Backup writes a full copy of doc next to the queue (or into the backup
// directory) and returns its path.
func (s *Store) Backup(doc Document) (string, error) {
	data, err := encode(doc)
	if err != nil {
		return "", err
	}
	base := filepath.Base(s.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	path, err := reserveBackup(s.backupDir, stem+"."+s.now().UTC().Format(backupTimeFormat))
	if err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return path, nil
}

// reserveBackup creates an empty, previously unused backup file named after
// prefix. Names taken by earlier backups get a _N suffix.
func reserveBackup(dir, prefix string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dir: %w", err)
	}
	for i := 0; ; i++ {
		name := prefix + ".backup.json"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.backup.json", prefix, i)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", name, err)
		}
		return path, f.Close()
	}
}

// Backups lists existing backup files for this queue, oldest first.
func (s *Store) Backups() ([]string, error) {
	base := filepath.Base(s.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	matches, err := filepath.Glob(filepath.Join(s.backupDir, stem+".*.backup.json"))
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	return matches, nil
}

func encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding queue: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
