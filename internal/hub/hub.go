// Package hub surfaces the recommended-gallery enlisting: a remote
// JSON array of repository URLs whose configs are resolved and shown
// to the user as import candidates. The listing is advisory, so fetch
// failures degrade to an empty result rather than an error.
package hub

import (
	"context"
	"encoding/json"
	"time"

	cache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/origin"
	"github.com/rickaym/plywood/internal/remote"
)

// DefaultTTL is how long a fetched enlisting is reused before the
// remote is asked again
const DefaultTTL = 5 * time.Minute

const cacheKey = "enlisting"

// Hub fetches and caches the recommended-gallery enlisting
type Hub struct {
	client   *remote.Client
	resolver *origin.Resolver

	// EnlistingURL locates the JSON array of repository URLs
	EnlistingURL string

	cache *cache.Cache
}

// New returns a hub reading the enlisting at url
func New(c *remote.Client, r *origin.Resolver, url string) *Hub {
	return &Hub{
		client:       c,
		resolver:     r,
		EnlistingURL: url,
		cache:        cache.New(DefaultTTL, 2*DefaultTTL),
	}
}

// Recommended returns the resolved configs of every reachable entry
// in the enlisting. Entries that fail to resolve are logged and
// dropped; a failure to fetch the enlisting itself yields an empty
// listing. Results are cached for DefaultTTL.
func (h *Hub) Recommended(ctx context.Context) []manifest.Config {

	if cached, ok := h.cache.Get(cacheKey); ok {
		return cached.([]manifest.Config)
	}

	logger := log.WithField("url", h.EnlistingURL)

	raw, err := h.client.Get(ctx, h.EnlistingURL, "recommended gallery enlisting")
	if err != nil {
		logger.WithField("error", err.Error()).Error("enlisted gallery URLs could not be fetched")
		return nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		logger.WithField("error", err.Error()).Error("enlisting is not a JSON array of URLs")
		return nil
	}

	configs := []manifest.Config{}

	for _, u := range urls {

		source := remote.PrepareRepoURL(u, remote.DefaultBranch)

		cfg, err := h.resolver.ResolveSingle(ctx, source, "")
		if err != nil {
			log.WithFields(log.Fields{
				"url":   u,
				"error": err.Error(),
			}).Warn("skipping unreachable recommended gallery")
			continue
		}

		configs = append(configs, cfg)
	}

	h.cache.Set(cacheKey, configs, cache.DefaultExpiration)

	logger.WithField("count", len(configs)).Info("recommended galleries fetched")

	return configs
}

// Invalidate drops the cached enlisting so the next call re-fetches
func (h *Hub) Invalidate() {
	h.cache.Delete(cacheKey)
}
