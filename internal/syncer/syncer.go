// Package syncer populates a staging directory with every asset a
// gallery manifest references, reporting fractional progress and
// honouring cooperative cancellation, then promotes the staged set
// into the durable store and records the gallery in the index.
//
// Downloads run in a bounded worker pool with all-or-nothing
// semantics: the first failure cancels the pool, every in-flight
// download is awaited, and the staging directory is removed, so the
// durable store never sees a partially-populated gallery. Completion
// is observed by joining the pool - there is no polling and no fixed
// sleep anywhere in the pipeline.
package syncer

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rickaym/plywood/internal/index"
	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/remote"
	"github.com/rickaym/plywood/internal/stage"
	"github.com/rickaym/plywood/internal/store"
)

// progress budget, fixed at 100 units overall
const (
	unitsParamsDownload = 5
	unitsParamsWritten  = 5
	unitsAssets         = 80
	unitsPromotion      = 5
	unitsCompletion     = 5
)

// assets outside this set are silently skipped, never fetched
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// DefaultWorkers bounds the per-sync download pool
const DefaultWorkers = 4

// Syncer runs gallery synchronizations. Concurrent Sync calls for
// different galleries are safe because each owns a disjoint staging
// directory keyed by project name.
type Syncer struct {
	client *remote.Client
	store  *store.Store
	index  *index.Index

	// Workers is the download pool size; zero means DefaultWorkers
	Workers int

	// Rate throttles asset fetches against the remote host; zero
	// value (0) is treated as unlimited
	Rate rate.Limit
}

// New returns a syncer with the default worker pool
func New(c *remote.Client, s *store.Store, idx *index.Index) *Syncer {
	return &Syncer{client: c, store: s, index: idx, Workers: DefaultWorkers}
}

// HasAllowedExtension reports whether filename may be fetched as an asset
func HasAllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(path.Ext(filename))]
}

// Sync downloads the gallery described by cfg from remoteRoot into
// staging and, on success, commits it to the durable store and
// records it in the index under repoIdentifier.
//
// Cancellation via ctx is cooperative: it is checked before each
// asset is dispatched and again before the commit phase, it wins any
// race with download completion, it removes the staging directory,
// and it is not an error - Sync returns nil.
func (sy *Syncer) Sync(ctx context.Context, remoteRoot, repoIdentifier string, cfg manifest.Config, report Reporter) error {

	op := uuid.New().String()[0:6]
	logger := log.WithFields(log.Fields{"op": op, "project": cfg.ProjectName})

	syncsStarted.Inc()

	rep := newLockedReporter(report)
	stagingDir := sy.store.CacheDir(cfg.ProjectName)

	fail := func(err error) error {
		syncsFailed.Inc()
		logger.WithField("error", err.Error()).Error("gallery synchronization failed")
		return err
	}

	rep.Report(unitsParamsDownload, "Downloading gallery parameters.")

	paramURL := remoteRoot + "/" + cfg.ParametersPath

	raw, err := sy.client.Get(ctx, paramURL, "gallery parameters")
	if err != nil {
		return fail(err)
	}

	params, err := manifest.ParseParameters(raw)
	if err != nil {
		return fail(err)
	}

	if err := sy.store.Fs.MkdirAll(stagingDir, 0755); err != nil {
		return fail(err)
	}

	if cfg.Favicon != "" {

		icon, err := sy.client.Get(ctx, remoteRoot+"/"+cfg.Favicon, "gallery favicon")
		if err != nil {
			return fail(err)
		}

		iconPath := sy.store.CacheFile(cfg.ProjectName, path.Base(cfg.Favicon))
		if err := sy.store.Fs.WriteFile(iconPath, icon, 0644); err != nil {
			return fail(err)
		}
	}

	// persist the pre-validated parameters document so the project
	// accessor can reload it without re-fetching
	paramsPath := sy.store.CacheFile(cfg.ProjectName, path.Base(cfg.ParametersPath))
	if err := sy.store.Fs.WriteFile(paramsPath, raw, 0644); err != nil {
		return fail(err)
	}

	rep.Report(unitsParamsWritten, "Gallery parameters downloaded.")

	if ctx.Err() != nil {
		return sy.cancelled(logger, stagingDir)
	}

	if err := sy.downloadAssets(ctx, logger, remoteRoot, cfg, params, rep); err != nil {
		if ctx.Err() != nil {
			// cancellation wins when both become true together
			return sy.cancelled(logger, stagingDir)
		}
		sy.removeStaging(logger, stagingDir)
		return fail(err)
	}

	if ctx.Err() != nil {
		return sy.cancelled(logger, stagingDir)
	}

	rep.Report(unitsPromotion, fmt.Sprintf("Moving staged download %q into local storage.", cfg.ProjectName))

	if err := stage.Commit(sy.store.Fs, stagingDir, sy.store.LocalDir(cfg.ProjectName)); err != nil {
		return fail(fmt.Errorf("failed to save gallery %q: %w", cfg.ProjectName, err))
	}

	err = sy.index.Add(repoIdentifier, index.Entry{
		URI:         repoIdentifier,
		ConfigPath:  sy.store.LocalFile(cfg.ProjectName, manifest.DefaultFilename),
		ProjectName: cfg.ProjectName,
		Version:     cfg.ContentVersion,
		External:    true,
	})
	if err != nil {
		return fail(fmt.Errorf("gallery %q saved but could not be indexed: %w", cfg.ProjectName, err))
	}

	rep.Report(unitsCompletion, fmt.Sprintf("Finished fetching remote gallery %q.", cfg.ProjectName))

	syncsSucceeded.Inc()
	logger.Info("gallery synchronized")

	return nil
}

// downloadAssets streams every allowed asset into staging using a
// bounded pool; the first failure cancels the pool and is returned
// after all workers settle
func (sy *Syncer) downloadAssets(ctx context.Context, logger *log.Entry, remoteRoot string, cfg manifest.Config, params manifest.Parameters, rep *lockedReporter) error {

	total := params.TotalAssets()
	if total == 0 {
		// nothing to fetch; the asset share of the budget is skipped
		logger.Info("gallery has no assets to download")
		return nil
	}

	perAsset := float64(unitsAssets) / float64(total)

	workers := sy.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	limit := sy.Rate
	if limit == 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, workers)

	stats := newDownloadStats()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0

	finished := func(name string) {
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		rep.Report(perAsset/2, fmt.Sprintf("[%d/%d] Downloaded image %q.", n, total, name))
	}

dispatch:
	for _, chapter := range params.Chapters {
		for _, asset := range chapter.Assets {

			// cooperative cancellation, once per asset iteration
			if ctx.Err() != nil || gctx.Err() != nil {
				break dispatch
			}

			name := path.Base(asset.ImagePath)

			if !HasAllowedExtension(name) {
				assetsSkipped.Inc()
				mu.Lock()
				done++
				mu.Unlock()
				rep.Report(perAsset, fmt.Sprintf("Skipped %q for having an impaired file extension.", name))
				continue
			}

			rep.Report(perAsset/2, fmt.Sprintf("Downloading image %q.", name))

			url := remoteRoot + "/" + asset.ImagePath
			dest := sy.store.CacheFile(cfg.ProjectName, name)

			g.Go(func() error {

				if err := limiter.Wait(gctx); err != nil {
					return err
				}

				n, err := sy.downloadOne(gctx, url, name, dest)
				if err != nil {
					return err
				}

				assetsDownloaded.Inc()
				stats.Add(n)
				finished(name)

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.WithFields(stats.Fields()).Info("asset download phase complete")

	return nil
}

// downloadOne streams a single asset to dest, returning its size
func (sy *Syncer) downloadOne(ctx context.Context, url, name, dest string) (int64, error) {

	rc, err := sy.client.GetStream(ctx, url, fmt.Sprintf("image %q", name))
	if err != nil {
		return 0, err
	}

	defer rc.Close()

	f, err := sy.store.Fs.Create(dest)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, rc)

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return 0, fmt.Errorf("writing image %q: %w", name, err)
	}

	return n, nil
}

// cancelled cleans up staging and resolves the operation without error
func (sy *Syncer) cancelled(logger *log.Entry, stagingDir string) error {

	syncsCancelled.Inc()
	logger.Info("synchronization cancelled by user request")
	sy.removeStaging(logger, stagingDir)

	return nil
}

func (sy *Syncer) removeStaging(logger *log.Entry, stagingDir string) {
	if err := sy.store.RemoveDir(stagingDir); err != nil {
		logger.WithField("error", err.Error()).Warn("could not remove staging directory")
	}
}
