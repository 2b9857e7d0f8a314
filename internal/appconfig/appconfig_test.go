package appconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {

	opts, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "main", opts.DefaultBranch)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, time.Hour, opts.MonitorInterval)
	assert.NotEmpty(t, opts.StoreRoot)
}

func TestLoadFromEnvironment(t *testing.T) {

	t.Setenv("PLYWOOD_STORE_ROOT", "/tmp/elsewhere")
	t.Setenv("PLYWOOD_DEFAULT_BRANCH", "trunk")
	t.Setenv("PLYWOOD_WORKERS", "2")
	t.Setenv("PLYWOOD_MONITOR_INTERVAL", "10m")

	opts, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/elsewhere", opts.StoreRoot)
	assert.Equal(t, "trunk", opts.DefaultBranch)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 10*time.Minute, opts.MonitorInterval)
}
