// Package appconfig loads runtime options from PLYWOOD_* environment
// variables.
package appconfig

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/rickaym/plywood/internal/store"
)

// Options are the runtime knobs; every field has a workable default
type Options struct {
	// StoreRoot overrides the managed store location
	StoreRoot string `split_words:"true"`

	// DefaultBranch is used when an import URL has no branch prefix
	DefaultBranch string `split_words:"true" default:"main"`

	// Workers bounds the per-sync download pool
	Workers int `default:"4"`

	// RatePerSecond throttles asset fetches; zero means unlimited
	RatePerSecond float64 `split_words:"true" default:"0"`

	// EnlistingURL locates the recommended-gallery enlisting
	EnlistingURL string `split_words:"true" default:"https://raw.githubusercontent.com/Rickaym/Plywood-Gallery-For-VSCode/main/recommended_galleries.json"`

	// MonitorInterval is the cadence of the background update sweep
	MonitorInterval time.Duration `split_words:"true" default:"1h"`

	LogFile  string `split_words:"true"`
	LogLevel string `split_words:"true" default:"info"`

	// Development switches logging to human-readable text at trace level
	Development bool `default:"false"`
}

// Load reads PLYWOOD_* variables and fills in the store default
func Load() (Options, error) {

	var opts Options

	if err := envconfig.Process("plywood", &opts); err != nil {
		return opts, err
	}

	if opts.StoreRoot == "" {
		opts.StoreRoot = store.DefaultRoot()
	}

	return opts, nil
}
