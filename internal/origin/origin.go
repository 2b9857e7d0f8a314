// Package origin resolves gallery configurations from their source:
// a remote repository root (single or batch) or a local manifest file
// left in place on the user's filesystem.
package origin

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/remote"
	"github.com/rickaym/plywood/internal/store"
)

// Resolver fetches and validates gallery configurations
type Resolver struct {
	client *remote.Client
	store  *store.Store
}

// NewResolver returns a resolver using the given fetcher and store
func NewResolver(c *remote.Client, s *store.Store) *Resolver {
	return &Resolver{client: c, store: s}
}

// ResolveSingle fetches source/<addendum> (or the default config
// filename when addendum is empty), parses and validates it, and on
// success writes the manifest through to the project's staging cache
// so later steps and resumed sessions can find it without
// re-fetching. The cache write is an idempotent overwrite.
func (r *Resolver) ResolveSingle(ctx context.Context, source, addendum string) (manifest.Config, error) {

	if addendum == "" {
		addendum = manifest.DefaultFilename
	}

	data, err := r.client.Get(ctx, source+"/"+addendum, "gallery configuration")
	if err != nil {
		return manifest.Config{}, err
	}

	cfg, err := manifest.ParseConfig(data)
	if err != nil {
		return manifest.Config{}, err
	}

	out, err := cfg.Marshal()
	if err != nil {
		return manifest.Config{}, err
	}

	cachePath := r.store.CacheFile(cfg.ProjectName, manifest.DefaultFilename)

	if err := r.store.Fs.MkdirAll(r.store.CacheDir(cfg.ProjectName), 0755); err != nil {
		return manifest.Config{}, fmt.Errorf("preparing staging cache: %w", err)
	}

	if err := r.store.Fs.WriteFile(cachePath, out, 0644); err != nil {
		return manifest.Config{}, fmt.Errorf("caching gallery configuration: %w", err)
	}

	log.WithFields(log.Fields{"project": cfg.ProjectName, "path": cachePath}).Debug("cached remote configuration")

	return cfg, nil
}

// HasBatch probes for a batch configuration at the remote root. Any
// non-200 response, including a transport error, reads as absence.
func (r *Resolver) HasBatch(ctx context.Context, source string) bool {
	return r.client.Probe(ctx, source+"/"+manifest.BatchFilename)
}

// Chooser picks one project name from an ordered set, or declines.
// It stands in for whatever selection UI the caller provides.
type Chooser func(projectNames []string) (string, bool)

// ResolveBatch fetches and validates the batch configuration, then
// resolves every listed addendum; any sub-resolve failing aborts the
// whole batch. The resolved set is offered to choose; a declined
// choice returns (nil, nil), which is user cancellation rather than
// an error. A nil chooser auto-picks only when there is exactly one
// gallery.
func (r *Resolver) ResolveBatch(ctx context.Context, source string, choose Chooser) (*manifest.Config, error) {

	data, err := r.client.Get(ctx, source+"/"+manifest.BatchFilename, "batch gallery configuration")
	if err != nil {
		return nil, err
	}

	batch, err := manifest.ParseBatch(data)
	if err != nil {
		return nil, err
	}

	names := []string{}
	configs := map[string]manifest.Config{}

	for _, addendum := range batch.GalleryConfigs {

		cfg, err := r.ResolveSingle(ctx, source, addendum)
		if err != nil {
			return nil, fmt.Errorf("batch member %s: %w", addendum, err)
		}

		if _, ok := configs[cfg.ProjectName]; !ok {
			names = append(names, cfg.ProjectName)
		}
		configs[cfg.ProjectName] = cfg
	}

	if choose == nil {
		if len(names) == 1 {
			cfg := configs[names[0]]
			return &cfg, nil
		}
		return nil, nil
	}

	name, ok := choose(names)
	if !ok {
		log.Debug("batch gallery choice declined")
		return nil, nil
	}

	cfg, ok := configs[name]
	if !ok {
		return nil, fmt.Errorf("chosen project %q is not in the batch", name)
	}

	return &cfg, nil
}

// ResolveLocal reads and validates a manifest file on the local
// filesystem; the file stays in place and is only referenced
func (r *Resolver) ResolveLocal(path string) (manifest.Config, error) {

	data, err := r.store.Fs.ReadFile(path)
	if err != nil {
		return manifest.Config{}, fmt.Errorf("couldn't find the gallery configuration at %s: %w", path, err)
	}

	return manifest.ParseConfig(data)
}
