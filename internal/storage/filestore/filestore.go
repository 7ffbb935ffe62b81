// Package filestore implements the persistence gateway on top of JSON files.
package filestore

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultDataDir  = "./data"
	backupTimestamp = "20060102_150405.000000000"
)

// Store keeps one file per record kind inside a data directory.
type Store struct {
	dir       string
	backupDir string
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithBackupDir copies the previous version of a record into dir before each save.
func WithBackupDir(dir string) Option {
	return func(s *Store) {
		s.backupDir = dir
	}
}

// WithLogger sets the logger used for backup warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used to name backups.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store rooted at dir, creating the directory when needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	s := &Store{dir: dir, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// BackupDir returns the backup directory, empty when backups are off.
func (s *Store) BackupDir() string {
	return s.backupDir
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(kind domain.Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

// Load reads a record. A missing or empty file yields nil payload.
func (s *Store) Load(kind domain.Kind) ([]byte, error) {
	payload, err := os.ReadFile(s.path(kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "read %s", kind)
	}

	if len(payload) == 0 {
		return nil, nil
	}

	return payload, nil
}

// Save writes a record atomically: the payload goes to a temp file in the same
// directory, is synced and then renamed over the target. When a backup
// directory is set the current file is copied there first; a failed backup
// is logged and does not stop the save.
func (s *Store) Save(kind domain.Kind, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backupDir != "" {
		if backup, err := s.backup(kind); err != nil {
			s.logger.Warn("record backup failed",
				zap.String("kind", string(kind)),
				zap.String("backup_dir", s.backupDir),
				zap.Error(err))
		} else if backup != "" {
			s.logger.Debug("record backed up",
				zap.String("kind", string(kind)),
				zap.String("path", backup))
		}
	}

	tmp, err := os.CreateTemp(s.dir, string(kind)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create %s temp file", kind)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s temp file", kind)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s temp file", kind)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s temp file", kind)
	}

	if err := os.Rename(tmpName, s.path(kind)); err != nil {
		return errors.Wrapf(err, "persist %s", kind)
	}

	return nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(kind domain.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(kind)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete %s", kind)
	}

	return nil
}

// backup copies the current record to <backupDir>/<kind>_<timestamp>.json and
// returns the new path, or "" when there is nothing to copy.
func (s *Store) backup(kind domain.Kind) (string, error) {
	src, err := os.Open(s.path(kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errors.Wrapf(err, "open %s", kind)
	}
	defer src.Close()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create backup dir")
	}

	name := filepath.Join(s.backupDir, string(kind)+"_"+s.now().UTC().Format(backupTimestamp)+".json")
	dst, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", errors.Wrapf(err, "create backup %s", name)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errors.Wrapf(err, "copy %s backup", kind)
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrapf(err, "close backup %s", name)
	}

	return name, nil
}
