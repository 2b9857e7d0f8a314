// Package project is the read side of the gallery store: it
// materializes a committed gallery from its index entry so callers
// get ordered chapters and absolute asset paths without touching the
// network.
package project

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/rickaym/plywood/internal/index"
	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/store"
)

// ErrNotFound reports a gallery that is not present, either because
// the identifier is unknown to the index or because its files are
// missing from disk. Loading never retries.
var ErrNotFound = errors.New("gallery not found")

// Asset is one gallery entry with its image resolved to an absolute
// path inside the store (or the local project directory)
type Asset struct {
	ImagePath string
	CellType  string
	CSS       string
	Code      string
}

// Chapter preserves the display order the parameters document declares
type Chapter struct {
	Name   string
	Assets []Asset
}

// Project is a fully-resolved gallery ready for presentation
type Project struct {
	ID       string
	Config   manifest.Config
	Chapters []Chapter
	Root     string
	IconPath string
	// PreviewPath is the first asset's image, empty for an empty gallery
	PreviewPath string
	External    bool
}

// Loader resolves index entries against the managed store
type Loader struct {
	store *store.Store
	index *index.Index
}

// NewLoader returns a loader over the given store and index
func NewLoader(s *store.Store, idx *index.Index) *Loader {
	return &Loader{store: s, index: idx}
}

// Load materializes the gallery registered under id. External
// galleries are read from their durable store directory; local
// galleries from their own directory, which is never copied.
func (l *Loader) Load(id string) (Project, error) {

	entry, ok, err := l.index.Get(id)
	if err != nil {
		return Project{}, err
	}
	if !ok {
		return Project{}, fmt.Errorf("%w: no gallery registered under %q", ErrNotFound, id)
	}

	var root, cfgPath string

	if entry.External {
		root = l.store.LocalDir(entry.ProjectName)
		cfgPath = l.store.LocalFile(entry.ProjectName, manifest.DefaultFilename)
	} else {
		cfgPath = entry.ConfigPath
		root = filepath.Dir(cfgPath)
	}

	cfg, err := l.readConfig(cfgPath, id)
	if err != nil {
		return Project{}, err
	}

	// committed galleries hold a flat directory, so externals address
	// everything by base name; local galleries keep their own layout
	paramsPath := filepath.Join(root, cfg.ParametersPath)
	if entry.External {
		paramsPath = filepath.Join(root, path.Base(cfg.ParametersPath))
	}

	raw, err := l.store.Fs.ReadFile(paramsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Project{}, fmt.Errorf("%w: gallery %q has no parameters file at %s", ErrNotFound, entry.ProjectName, paramsPath)
		}
		return Project{}, err
	}

	params, err := manifest.ParseParameters(raw)
	if err != nil {
		return Project{}, fmt.Errorf("gallery %q: %w", entry.ProjectName, err)
	}

	p := Project{
		ID:       id,
		Config:   cfg,
		Root:     root,
		External: entry.External,
	}

	if cfg.Favicon != "" {
		p.IconPath = resolve(root, cfg.Favicon, entry.External)
	}

	for _, c := range params.Chapters {

		chapter := Chapter{Name: c.Name}

		for _, a := range c.Assets {
			chapter.Assets = append(chapter.Assets, Asset{
				ImagePath: resolve(root, a.ImagePath, entry.External),
				CellType:  a.CellType,
				CSS:       a.CSS,
				Code:      a.Code,
			})
		}

		p.Chapters = append(p.Chapters, chapter)
	}

	for _, c := range p.Chapters {
		if len(c.Assets) > 0 {
			p.PreviewPath = c.Assets[0].ImagePath
			break
		}
	}

	log.WithFields(log.Fields{
		"project":  entry.ProjectName,
		"chapters": len(p.Chapters),
	}).Debug("gallery loaded")

	return p, nil
}

func (l *Loader) readConfig(cfgPath, id string) (manifest.Config, error) {

	raw, err := l.store.Fs.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return manifest.Config{}, fmt.Errorf("%w: config for %q missing at %s", ErrNotFound, id, cfgPath)
		}
		return manifest.Config{}, err
	}

	return manifest.ParseConfig(raw)
}

func resolve(root, rel string, external bool) string {
	if external {
		return filepath.Join(root, path.Base(rel))
	}
	return filepath.Join(root, rel)
}
