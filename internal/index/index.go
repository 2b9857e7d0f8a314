// Package index keeps the durable registry of installed galleries:
// one JSON document mapping a stable identifier (repository URL for
// external galleries, manifest file path for local ones) to the entry
// describing the installation. Every write is a whole-document
// rewrite; two writers racing means the later write wins, which is a
// documented limitation rather than something this package defends
// against across processes.
package index

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
	log "github.com/sirupsen/logrus"

	"github.com/rickaym/plywood/internal/store"
)

// Entry describes one installed gallery
type Entry struct {
	URI         string `json:"uri"`
	ConfigPath  string `json:"galleryConfigFp"`
	ProjectName string `json:"projectName"`
	Version     string `json:"version"`
	External    bool   `json:"isExternal"`
}

// Map is the full identifier -> entry mapping
type Map map[string]Entry

// Index reads and rewrites the index document. The mutex serialises
// read-modify-write cycles within this process only.
type Index struct {
	sync.Mutex
	store *store.Store
}

// New returns an index backed by the given store's index document
func New(s *store.Store) *Index {
	return &Index{store: s}
}

// Load reads and parses the whole index document. An absent document
// is an initialisation bug in the surrounding system - the store
// bootstrap must have created it - so the error propagates.
func (i *Index) Load() (Map, error) {

	i.Lock()
	defer i.Unlock()

	return i.load()
}

// load does not take the lock; for internal use within a locked cycle
func (i *Index) load() (Map, error) {

	data, err := i.store.Fs.ReadFile(i.store.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("reading gallery index: %w", err)
	}

	m := Map{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing gallery index: %w", err)
	}

	return m, nil
}

// save rewrites the whole document; for internal use within a locked cycle
func (i *Index) save(m Map) error {

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return i.store.Fs.WriteFile(i.store.IndexPath(), data, 0644)
}

// Get returns a detached copy of the entry for id, and whether it exists
func (i *Index) Get(id string) (Entry, bool, error) {

	m, err := i.Load()
	if err != nil {
		return Entry{}, false, err
	}

	e, ok := m[id]
	if !ok {
		return Entry{}, false, nil
	}

	out := Entry{}
	if err := copier.Copy(&out, &e); err != nil {
		return Entry{}, false, err
	}

	return out, true, nil
}

// Has reports whether id is already installed
func (i *Index) Has(id string) (bool, error) {

	_, ok, err := i.Get(id)

	return ok, err
}

// Add inserts or replaces the entry for id (last writer wins)
func (i *Index) Add(id string, e Entry) error {

	i.Lock()
	defer i.Unlock()

	m, err := i.load()
	if err != nil {
		return err
	}

	m[id] = e

	return i.save(m)
}

// Remove deletes the entry for id, then cleans up the durable
// directory of external galleries. The index mutation is the source
// of truth: a failed directory cleanup is reported in the log and the
// removal still succeeds, since a dangling directory is less harmful
// than a dangling index entry.
func (i *Index) Remove(id string) error {

	i.Lock()

	m, err := i.load()
	if err != nil {
		i.Unlock()
		return err
	}

	e, ok := m[id]
	if !ok {
		i.Unlock()
		return nil
	}

	delete(m, id)

	if err := i.save(m); err != nil {
		i.Unlock()
		return err
	}

	i.Unlock()

	if e.External {
		if err := i.store.RemoveDir(i.store.LocalDir(e.ProjectName)); err != nil {
			log.WithFields(log.Fields{
				"identifier": id,
				"project":    e.ProjectName,
				"error":      err.Error(),
			}).Warn("removed index entry but could not clean up gallery directory")
		}
	}

	return nil
}
