// Package monitor runs the background update sweep: on an interval
// it asks every installed external gallery whether its remote content
// version moved, and notifies a callback with the stale identifiers.
// Sweep failures back off instead of tight-looping.
package monitor

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	log "github.com/sirupsen/logrus"
)

// Checker is the update-sweep dependency, satisfied by app.App
type Checker interface {
	CheckUpdates(ctx context.Context) ([]string, error)
}

// Config holds the sweep parameters
type Config struct {
	// Interval between successful sweeps
	Interval time.Duration

	Checker Checker

	// Notify receives the identifiers with updates available; not
	// called for an empty sweep
	Notify func(ids []string)

	// MinBackoff is the first retry delay after a failed sweep;
	// zero means 5s
	MinBackoff time.Duration
}

// Run sweeps until ctx is cancelled. A failed sweep is retried with
// exponential backoff capped at Interval, then the cadence resets on
// the next success.
func Run(ctx context.Context, config Config) {

	log.WithField("interval", config.Interval).Info("starting gallery update monitor")

	min := config.MinBackoff
	if min == 0 {
		min = 5 * time.Second
	}

	b := &backoff.Backoff{
		Min:    min,
		Max:    config.Interval,
		Factor: 2,
		Jitter: true,
	}

	for {

		wait := config.Interval

		stale, err := config.Checker.CheckUpdates(ctx)
		if err != nil {
			wait = b.Duration()
			log.WithFields(log.Fields{
				"error": err.Error(),
				"retry": wait.String(),
			}).Warn("update sweep failed")
		} else {

			b.Reset()

			if len(stale) > 0 {
				log.WithField("count", len(stale)).Info("galleries have updates available")
				if config.Notify != nil {
					config.Notify(stale)
				}
			}
		}

		select {
		case <-ctx.Done():
			log.Info("gallery update monitor stopped")
			return
		case <-time.After(wait):
		}
	}
}
