// Package stage promotes a fully-downloaded staging directory into
// the durable store. The promotion is copy-then-delete rather than
// rename so it behaves the same on every afero filesystem; the
// pre-existing durable content is removed only immediately before the
// copy starts, keeping the window where neither version exists as
// small as possible. A crash inside that window loses the old
// version - the operation is not crash-atomic by contract.
package stage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrStagingLost indicates the staging directory was gone at commit
// time, usually because a concurrent cancellation emptied it
var ErrStagingLost = errors.New("staging directory lost before commit")

// Commit moves the staging subtree into durableDir, replacing any
// prior version, and removes the now-redundant staging directory
func Commit(fs afero.Afero, stagingDir, durableDir string) error {

	ok, err := fs.DirExists(stagingDir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrStagingLost, stagingDir)
	}

	exists, err := fs.DirExists(durableDir)
	if err != nil {
		return err
	}
	if exists {
		log.WithField("dir", durableDir).Debug("removing previous gallery version")
		if err := fs.RemoveAll(durableDir); err != nil {
			return err
		}
	}

	if err := copyTree(fs, stagingDir, durableDir); err != nil {
		return err
	}

	return fs.RemoveAll(stagingDir)
}

// copyTree copies every file under src to the same relative path under dst
func copyTree(fs afero.Afero, src, dst string) error {

	return fs.Walk(src, func(path string, info os.FileInfo, err error) error {

		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return fs.MkdirAll(target, 0755)
		}

		data, err := fs.ReadFile(path)
		if err != nil {
			return err
		}

		return fs.WriteFile(target, data, info.Mode())
	})
}
