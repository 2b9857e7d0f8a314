// Package store owns the managed directory layout that galleries are
// synchronized into: a cache/ root holding per-project staging
// directories and a local/ root holding fully-committed galleries,
// with the index document alongside the committed content. Everything
// goes through an afero filesystem so the layout is testable in
// memory.
package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/shirou/gopsutil/v4/disk"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	cacheDirName = "cache"
	localDirName = "local"

	// IndexFilename is the index document inside the local root
	IndexFilename = "index.json"
)

// Store addresses the managed directory tree
type Store struct {
	Fs   afero.Afero
	Root string
}

// New returns a store rooted at root on the given filesystem
func New(fs afero.Fs, root string) *Store {
	return &Store{Fs: afero.Afero{Fs: fs}, Root: root}
}

// DefaultRoot returns the standard store location under the XDG data home
func DefaultRoot() string {
	return filepath.Join(xdg.DataHome, "plywood-gallery")
}

// Canonical converts a project name to a filesystem-safe slug:
// lowercase, with spaces and hyphens replaced by underscores
func Canonical(projectName string) string {
	slug := strings.ToLower(projectName)
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "-", "_")
	return slug
}

// EnsureLayout creates the shell directories and an empty index
// document on first run; it is idempotent
func (s *Store) EnsureLayout() error {

	for _, dir := range []string{s.CacheRoot(), s.LocalRoot()} {
		if err := s.Fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	exists, err := s.Fs.Exists(s.IndexPath())
	if err != nil {
		return err
	}

	if !exists {
		log.WithField("path", s.IndexPath()).Info("creating empty gallery index")
		return s.Fs.WriteFile(s.IndexPath(), []byte("{}"), 0644)
	}

	return nil
}

// CacheRoot is the staging area root
func (s *Store) CacheRoot() string {
	return filepath.Join(s.Root, cacheDirName)
}

// LocalRoot is the durable store root
func (s *Store) LocalRoot() string {
	return filepath.Join(s.Root, localDirName)
}

// IndexPath is the location of the index document
func (s *Store) IndexPath() string {
	return filepath.Join(s.LocalRoot(), IndexFilename)
}

// CacheDir is the staging directory for a project
func (s *Store) CacheDir(projectName string) string {
	return filepath.Join(s.CacheRoot(), Canonical(projectName))
}

// LocalDir is the durable directory for a project
func (s *Store) LocalDir(projectName string) string {
	return filepath.Join(s.LocalRoot(), Canonical(projectName))
}

// CacheFile addresses a file within a project's staging directory
func (s *Store) CacheFile(projectName, filename string) string {
	return filepath.Join(s.CacheDir(projectName), filename)
}

// LocalFile addresses a file within a project's durable directory
func (s *Store) LocalFile(projectName, filename string) string {
	return filepath.Join(s.LocalDir(projectName), filename)
}

// RemoveDir deletes a directory subtree. A directory that vanishes
// while being removed counts as success - cancellation cleanup can
// race an in-flight download writing into it.
func (s *Store) RemoveDir(dir string) error {

	err := s.Fs.RemoveAll(dir)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	return err
}

// ClearCache drops the whole staging root and recreates it empty
func (s *Store) ClearCache() error {

	if err := s.RemoveDir(s.CacheRoot()); err != nil {
		return err
	}

	return s.Fs.MkdirAll(s.CacheRoot(), 0755)
}

// Usage reports how much the managed store holds on disk
type Usage struct {
	StoreBytes uint64 // total size of files under the store root
	DiskFree   uint64 // free space on the containing filesystem, zero if unknown
	DiskTotal  uint64
}

// Usage walks the store and, for stores on the host filesystem, asks
// the OS about the containing partition
func (s *Store) Usage() (Usage, error) {

	u := Usage{}

	err := s.Fs.Walk(s.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			u.StoreBytes += uint64(info.Size())
		}
		return nil
	})
	if err != nil {
		return u, err
	}

	// partition stats only make sense on a real filesystem
	if _, ok := s.Fs.Fs.(*afero.OsFs); ok {
		if du, err := disk.Usage(s.Root); err == nil {
			u.DiskFree = du.Free
			u.DiskTotal = du.Total
		}
	}

	return u, nil
}
