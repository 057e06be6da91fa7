// Package cache stores converted PDFs in a flat, content-addressed directory.
//
// Entries are named {baseName}_{fingerprint}.pdf. They are written once by
// renaming a freshly converted file into place and never modified afterwards.
// The directory is not locked: a sweep racing a conversion can at worst delete
// an entry that the next open regenerates.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-slideview/internal/fileutil"
)

// Layout constants.
const (
	DefaultDirName = "slideview-cache"
	Extension      = ".pdf"
	stagingPrefix  = ".staging-"
	dirPermissions = 0o750
)

// DefaultDir returns the process-wide cache directory under the platform temp root.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), DefaultDirName)
}

// Key identifies one cache entry.
type Key struct {
	BaseName    string
	Fingerprint string
}

// NewKey derives the key for a source file from its path and content fingerprint.
func NewKey(sourcePath, fingerprint string) Key {
	return Key{BaseName: fileutil.BaseName(sourcePath), Fingerprint: fingerprint}
}

// FileName returns the entry's file name inside the cache directory.
func (k Key) FileName() string {
	return k.BaseName + "_" + k.Fingerprint + Extension
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.FileName()
}

// Entry describes one cached document on disk.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Stats summarizes the cache directory.
type Stats struct {
	Count     int
	TotalSize int64
}

// SweepReport summarizes one age-based sweep.
type SweepReport struct {
	Scanned int
	Removed int
	Freed   int64
	Failed  int
}

// Store manages the cache directory.
type Store struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used by sweeps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger for per-entry maintenance errors.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates a Store rooted at dir. The directory is created lazily.
// An empty dir selects DefaultDir.
func New(dir string, opts ...Option) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	s := &Store{
		dir: dir,
		now: time.Now,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the cache directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Ensure creates the cache directory if it does not exist.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, dirPermissions); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", s.dir, err)
	}
	return nil
}

// Path returns the on-disk path for k, whether or not the entry exists.
func (s *Store) Path(k Key) string {
	return filepath.Join(s.dir, k.FileName())
}

// Lookup returns the entry for k if a non-empty file exists under its name.
func (s *Store) Lookup(k Key) (Entry, bool) {
	path := s.Path(k)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return Entry{}, false
	}
	return Entry{Path: path, Size: info.Size(), ModTime: info.ModTime()}, true
}

// Stage creates a private working directory inside the cache directory.
// Converters write there so a rename into place stays on one filesystem.
// The returned cleanup removes the directory and anything left in it.
func (s *Store) Stage() (dir string, cleanup func(), err error) {
	if err := s.Ensure(); err != nil {
		return "", nil, err
	}
	dir, err = os.MkdirTemp(s.dir, stagingPrefix+"*")
	if err != nil {
		return "", nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// Commit moves a produced document to the entry path for k.
// An existing entry is replaced; identical keys always carry identical content.
func (s *Store) Commit(k Key, produced string) (Entry, error) {
	if err := s.Ensure(); err != nil {
		return Entry{}, err
	}
	dst := s.Path(k)
	if err := os.Rename(produced, dst); err != nil {
		return Entry{}, fmt.Errorf("moving %s into cache: %w", filepath.Base(produced), err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return Entry{}, fmt.Errorf("reading committed entry: %w", err)
	}
	return Entry{Path: dst, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Entries lists cached documents. A missing directory yields no entries.
func (s *Store) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(s.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// Stats returns the entry count and total size.
func (s *Store) Stats() (Stats, error) {
	entries, err := s.Entries()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, e := range entries {
		st.Count++
		st.TotalSize += e.Size
	}
	return st, nil
}

// SweepOlderThan deletes entries whose modification time is strictly older
// than maxAge. Abandoned staging directories are removed under the same rule.
// Per-entry failures are logged and counted, never returned.
func (s *Store) SweepOlderThan(maxAge time.Duration) SweepReport {
	var report SweepReport

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("dir", s.dir).Msg("cache sweep: cannot read directory")
		}
		return report
	}

	now := s.now()
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		isStaging := de.IsDir() && strings.HasPrefix(de.Name(), stagingPrefix)
		if !info.Mode().IsRegular() && !isStaging {
			continue
		}
		report.Scanned++

		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(s.dir, de.Name())
		if isStaging {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			report.Failed++
			s.log.Warn().Err(err).Str("entry", de.Name()).Msg("cache sweep: cannot delete entry")
			continue
		}
		report.Removed++
		if !isStaging {
			report.Freed += info.Size()
		}
		s.log.Debug().Str("entry", de.Name()).Dur("age", now.Sub(info.ModTime())).Msg("cache sweep: deleted")
	}
	return report
}

// Clear deletes everything in the cache directory and reports what was freed.
// It keeps going after a failed deletion and returns the joined errors.
func (s *Store) Clear() (Stats, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Stats{}, nil
		}
		return Stats{}, fmt.Errorf("reading cache directory: %w", err)
	}

	var freed Stats
	var errs []error
	for _, de := range dirEntries {
		path := filepath.Join(s.dir, de.Name())
		if de.IsDir() {
			if err := os.RemoveAll(path); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		info, infoErr := de.Info()
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		freed.Count++
		if infoErr == nil {
			freed.TotalSize += info.Size()
		}
	}
	return freed, errors.Join(errs...)
}
