// Package app binds the resolver, syncer, index and store into the
// user-facing operations. Every operation returns a human-readable
// diagnostic beside its error; presentation layers show the
// diagnostic as-is. Approval gates and batch choosers are injected
// functions, so the package never talks to a user directly.
package app

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/rickaym/plywood/internal/index"
	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/origin"
	"github.com/rickaym/plywood/internal/project"
	"github.com/rickaym/plywood/internal/remote"
	"github.com/rickaym/plywood/internal/store"
	"github.com/rickaym/plywood/internal/syncer"
)

// Approver decides a yes/no question on the user's behalf
type Approver func(prompt string) bool

// App is the orchestrator
type App struct {
	Client   *remote.Client
	Resolver *origin.Resolver
	Syncer   *syncer.Syncer
	Store    *store.Store
	Index    *index.Index
	Loader   *project.Loader

	// DefaultBranch is used when an import URL has no branch prefix
	DefaultBranch string

	// Approve gates re-importing an already-installed gallery; nil
	// declines, so only force overrides a duplicate
	Approve Approver

	// Choose picks a gallery from a batch offering
	Choose origin.Chooser

	// Progress receives sync progress; may be nil
	Progress syncer.Reporter
}

// New wires an app over shared collaborators
func New(client *remote.Client, st *store.Store) *App {

	idx := index.New(st)

	return &App{
		Client:        client,
		Resolver:      origin.NewResolver(client, st),
		Syncer:        syncer.New(client, st, idx),
		Store:         st,
		Index:         idx,
		Loader:        project.NewLoader(st, idx),
		DefaultBranch: remote.DefaultBranch,
	}
}

// ImportRemote fetches, synchronizes and registers the gallery at
// url. A gallery already installed under the same identifier needs
// either force or the approver's consent; declining is a no-op, not
// an error.
func (a *App) ImportRemote(ctx context.Context, url string, force bool) (string, error) {

	source := remote.PrepareRepoURL(url, a.DefaultBranch)

	ok, err := a.approveDuplicate(source, force)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Import of %q skipped.", source), nil
	}

	var chosen *manifest.Config

	if a.Resolver.HasBatch(ctx, source) {

		c, err := a.Resolver.ResolveBatch(ctx, source, a.Choose)
		if err != nil {
			return fmt.Sprintf("Could not read the gallery batch at %q.", source), err
		}
		if c == nil {
			return "No gallery chosen from the batch.", nil
		}
		chosen = c

	} else {

		c, err := a.Resolver.ResolveSingle(ctx, source, "")
		if err != nil {
			return fmt.Sprintf("Could not read the gallery config at %q.", source), err
		}
		chosen = &c
	}

	if err := a.Syncer.Sync(ctx, source, source, *chosen, a.Progress); err != nil {
		return fmt.Sprintf("Import of %q failed.", chosen.ProjectName), err
	}

	if ctx.Err() != nil {
		return fmt.Sprintf("Import of %q cancelled.", chosen.ProjectName), nil
	}

	return fmt.Sprintf("Gallery %q is ready to open.", chosen.ProjectName), nil
}

// ImportLocal registers the manifest at path without copying anything;
// the gallery stays in place and is only referenced
func (a *App) ImportLocal(path string, force bool) (string, error) {

	ok, err := a.approveDuplicate(path, force)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Import of %q skipped.", path), nil
	}

	cfg, err := a.Resolver.ResolveLocal(path)
	if err != nil {
		return fmt.Sprintf("Could not read the gallery config at %q.", path), err
	}

	err = a.Index.Add(path, index.Entry{
		URI:         path,
		ConfigPath:  path,
		ProjectName: cfg.ProjectName,
		Version:     cfg.ContentVersion,
		External:    false,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Gallery %q is ready to open.", cfg.ProjectName), nil
}

// CheckUpdate re-resolves the remote config for id and compares
// content versions by equality. Local galleries never report updates.
func (a *App) CheckUpdate(ctx context.Context, id string) (bool, string, error) {

	entry, ok, err := a.Index.Get(id)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "", fmt.Errorf("%w: no gallery registered under %q", project.ErrNotFound, id)
	}

	if !entry.External {
		return false, fmt.Sprintf("Gallery %q is local and always current.", entry.ProjectName), nil
	}

	cfg, err := a.Resolver.ResolveSingle(ctx, entry.URI, "")
	if err != nil {
		return false, fmt.Sprintf("Could not check %q for updates.", entry.ProjectName), err
	}

	if cfg.ContentVersion == entry.Version {
		return false, fmt.Sprintf("Gallery %q is up to date (%s).", entry.ProjectName, entry.Version), nil
	}

	return true, fmt.Sprintf("Gallery %q has an update: %s -> %s.", entry.ProjectName, entry.Version, cfg.ContentVersion), nil
}

// CheckUpdates sweeps every external gallery and returns the
// identifiers with an update available. Unreachable galleries are
// logged and skipped.
func (a *App) CheckUpdates(ctx context.Context) ([]string, error) {

	m, err := a.Index.Load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(m))
	for id, e := range m {
		if e.External {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var stale []string

	for _, id := range ids {

		if ctx.Err() != nil {
			return stale, nil
		}

		available, _, err := a.CheckUpdate(ctx, id)
		if err != nil {
			log.WithFields(log.Fields{
				"id":    id,
				"error": err.Error(),
			}).Warn("update check skipped")
			continue
		}

		if available {
			stale = append(stale, id)
		}
	}

	return stale, nil
}

// Remove unregisters a gallery; external content is cleaned from the
// durable store, local content stays untouched
func (a *App) Remove(id string) (string, error) {

	entry, ok, err := a.Index.Get(id)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("No gallery registered under %q.", id), nil
	}

	if err := a.Index.Remove(id); err != nil {
		return "", err
	}

	return fmt.Sprintf("Gallery %q removed.", entry.ProjectName), nil
}

// Galleries loads every registered project in one origin category,
// sorted by identifier for stable listings
func (a *App) Galleries(external bool) ([]project.Project, error) {

	m, err := a.Index.Load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(m))
	for id, e := range m {
		if e.External == external {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var projects []project.Project

	for _, id := range ids {

		p, err := a.Loader.Load(id)
		if err != nil {
			// a broken entry must not hide the healthy ones
			log.WithFields(log.Fields{
				"id":    id,
				"error": err.Error(),
			}).Warn("skipping unreadable gallery")
			continue
		}

		projects = append(projects, p)
	}

	return projects, nil
}

// Refresh re-reads the index so listings reflect changes made behind
// the running process, e.g. by another plywood invocation
func (a *App) Refresh() (string, error) {

	m, err := a.Index.Load()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d galleries registered.", len(m)), nil
}

// ClearCache drops every staging directory, committed galleries are
// untouched
func (a *App) ClearCache() (string, error) {

	if err := a.Store.ClearCache(); err != nil {
		return "", err
	}

	return "Download cache cleared.", nil
}

// Status summarises the store for the user
func (a *App) Status() (string, error) {

	m, err := a.Index.Load()
	if err != nil {
		return "", err
	}

	external, local := 0, 0
	for _, e := range m {
		if e.External {
			external++
		} else {
			local++
		}
	}

	u, err := a.Store.Usage()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d external and %d local galleries, %d bytes in %s.",
		external, local, u.StoreBytes, a.Store.Root), nil
}

// approveDuplicate applies the duplicate-import gate for identifier
func (a *App) approveDuplicate(id string, force bool) (bool, error) {

	has, err := a.Index.Has(id)
	if err != nil {
		return false, err
	}

	if !has || force {
		return true, nil
	}

	if a.Approve == nil {
		return false, nil
	}

	return a.Approve(fmt.Sprintf("A gallery from %q is already installed. Import it again?", id)), nil
}
