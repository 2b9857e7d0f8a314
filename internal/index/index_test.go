package index

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickaym/plywood/internal/store"
)

func newIndex(t *testing.T) (*Index, *store.Store) {

	s := store.New(afero.NewMemMapFs(), "/data/plywood-gallery")
	require.NoError(t, s.EnsureLayout())

	return New(s), s
}

func TestRoundTrip(t *testing.T) {

	idx, _ := newIndex(t)

	entry := Entry{
		URI:         "https://github.com/acme/repo",
		ConfigPath:  "/data/local/example_gallery/gallery_config.yaml",
		ProjectName: "Example Gallery",
		Version:     "0.2.1",
		External:    true,
	}

	assert.NoError(t, idx.Add("https://github.com/acme/repo", entry))

	got, ok, err := idx.Get("https://github.com/acme/repo")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entry, got)

	assert.NoError(t, idx.Remove("https://github.com/acme/repo"))

	_, ok, err = idx.Get("https://github.com/acme/repo")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUnknown(t *testing.T) {

	idx, _ := newIndex(t)

	_, ok, err := idx.Get("https://github.com/acme/unknown")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetReturnsDetachedCopy(t *testing.T) {

	idx, _ := newIndex(t)

	require.NoError(t, idx.Add("id", Entry{ProjectName: "One", Version: "1"}))

	got, _, err := idx.Get("id")
	require.NoError(t, err)

	got.Version = "tampered"

	again, _, err := idx.Get("id")
	assert.NoError(t, err)
	assert.Equal(t, "1", again.Version)
}

func TestAddLastWriterWins(t *testing.T) {

	idx, _ := newIndex(t)

	assert.NoError(t, idx.Add("id", Entry{ProjectName: "One", Version: "1"}))
	assert.NoError(t, idx.Add("id", Entry{ProjectName: "One", Version: "2"}))

	got, ok, err := idx.Get("id")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", got.Version)

	m, err := idx.Load()
	assert.NoError(t, err)
	assert.Len(t, m, 1)
}

func TestRemoveExternalCleansUpDirectory(t *testing.T) {

	idx, s := newIndex(t)

	require.NoError(t, s.Fs.WriteFile(s.LocalFile("Example Gallery", "one.png"), []byte("img"), 0644))

	require.NoError(t, idx.Add("https://github.com/acme/repo", Entry{
		URI:         "https://github.com/acme/repo",
		ProjectName: "Example Gallery",
		External:    true,
	}))

	assert.NoError(t, idx.Remove("https://github.com/acme/repo"))

	ok, err := s.Fs.DirExists(s.LocalDir("Example Gallery"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveLocalLeavesFilesInPlace(t *testing.T) {

	idx, s := newIndex(t)

	// a local gallery's manifest lives outside the managed store
	require.NoError(t, s.Fs.WriteFile("/home/user/gallery/gallery_config.yaml", []byte("cfg"), 0644))

	require.NoError(t, idx.Add("/home/user/gallery/gallery_config.yaml", Entry{
		URI:         "/home/user/gallery/gallery_config.yaml",
		ConfigPath:  "/home/user/gallery/gallery_config.yaml",
		ProjectName: "Local Gallery",
		External:    false,
	}))

	assert.NoError(t, idx.Remove("/home/user/gallery/gallery_config.yaml"))

	ok, err := s.Fs.Exists("/home/user/gallery/gallery_config.yaml")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestRemoveUnknownIsNoop(t *testing.T) {

	idx, _ := newIndex(t)

	assert.NoError(t, idx.Remove("https://github.com/acme/ghost"))
}
