package origin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/remote"
	"github.com/rickaym/plywood/internal/store"
)

const exampleConfig = `project_name: Example Gallery
repository_url: https://github.com/acme/example-gallery
user_content_version: "0.2.1"
description: An example gallery
gallery_parameters_path: gallery_parameters.json
`

const secondConfig = `project_name: Second Gallery
repository_url: https://github.com/acme/second-gallery
user_content_version: "1.0.0"
description: Another example
gallery_parameters_path: gallery_parameters.json
`

func newResolver(t *testing.T) (*Resolver, *store.Store) {

	s := store.New(afero.NewMemMapFs(), "/data/plywood-gallery")
	require.NoError(t, s.EnsureLayout())

	return NewResolver(remote.New(), s), s
}

func batchServer() *httptest.Server {

	r := mux.NewRouter()

	r.HandleFunc("/gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, exampleConfig)
	})
	r.HandleFunc("/batch_gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "projectName: Acme\ngalleryConfigs:\n  - one/gallery_config.yaml\n  - two/gallery_config.yaml\n")
	})
	r.HandleFunc("/one/gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, exampleConfig)
	})
	r.HandleFunc("/two/gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, secondConfig)
	})

	return httptest.NewServer(r)
}

func TestResolveSingle(t *testing.T) {

	srv := batchServer()
	defer srv.Close()

	r, s := newResolver(t)

	cfg, err := r.ResolveSingle(context.Background(), srv.URL, "")

	assert.NoError(t, err)
	assert.Equal(t, "Example Gallery", cfg.ProjectName)

	// the manifest was written through to the staging cache
	data, err := s.Fs.ReadFile(s.CacheFile("Example Gallery", manifest.DefaultFilename))
	assert.NoError(t, err)

	cached, err := manifest.ParseConfig(data)
	assert.NoError(t, err)
	assert.Equal(t, cfg, cached)
}

func TestResolveSingleNotFound(t *testing.T) {

	srv := batchServer()
	defer srv.Close()

	r, _ := newResolver(t)

	_, err := r.ResolveSingle(context.Background(), srv.URL, "absent/gallery_config.yaml")

	var fe *remote.FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestResolveSingleInvalidStructure(t *testing.T) {

	m := mux.NewRouter()
	m.HandleFunc("/gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "project_name: Only A Name\n")
	})
	srv := httptest.NewServer(m)
	defer srv.Close()

	r, s := newResolver(t)

	_, err := r.ResolveSingle(context.Background(), srv.URL, "")

	assert.ErrorIs(t, err, manifest.ErrInvalidConfig)

	// nothing cached for a rejected manifest
	ok, err2 := s.Fs.Exists(s.CacheFile("Only A Name", manifest.DefaultFilename))
	assert.NoError(t, err2)
	assert.False(t, ok)
}

func TestHasBatch(t *testing.T) {

	srv := batchServer()
	defer srv.Close()

	r, _ := newResolver(t)

	assert.True(t, r.HasBatch(context.Background(), srv.URL))
	assert.False(t, r.HasBatch(context.Background(), srv.URL+"/nowhere"))
	// a dead host is absence, not an error
	assert.False(t, r.HasBatch(context.Background(), "http://127.0.0.1:1"))
}

func TestResolveBatch(t *testing.T) {

	srv := batchServer()
	defer srv.Close()

	r, _ := newResolver(t)

	var offered []string

	cfg, err := r.ResolveBatch(context.Background(), srv.URL, func(names []string) (string, bool) {
		offered = names
		return "Second Gallery", true
	})

	assert.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "Second Gallery", cfg.ProjectName)
	// choices are offered in batch order
	assert.Equal(t, []string{"Example Gallery", "Second Gallery"}, offered)
}

func TestResolveBatchCancelled(t *testing.T) {

	srv := batchServer()
	defer srv.Close()

	r, _ := newResolver(t)

	cfg, err := r.ResolveBatch(context.Background(), srv.URL, func(names []string) (string, bool) {
		return "", false
	})

	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestResolveBatchAbortsOnMemberFailure(t *testing.T) {

	m := mux.NewRouter()
	m.HandleFunc("/batch_gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "galleryConfigs:\n  - one/gallery_config.yaml\n  - broken/gallery_config.yaml\n")
	})
	m.HandleFunc("/one/gallery_config.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, exampleConfig)
	})
	srv := httptest.NewServer(m)
	defer srv.Close()

	r, _ := newResolver(t)

	chooserCalled := false

	_, err := r.ResolveBatch(context.Background(), srv.URL, func(names []string) (string, bool) {
		chooserCalled = true
		return names[0], true
	})

	assert.Error(t, err)
	// no partial selection is offered
	assert.False(t, chooserCalled)
}

func TestResolveLocal(t *testing.T) {

	r, s := newResolver(t)

	require.NoError(t, s.Fs.WriteFile("/home/user/gallery/gallery_config.yaml", []byte(exampleConfig), 0644))

	cfg, err := r.ResolveLocal("/home/user/gallery/gallery_config.yaml")

	assert.NoError(t, err)
	assert.Equal(t, "Example Gallery", cfg.ProjectName)

	_, err = r.ResolveLocal("/home/user/gallery/missing.yaml")
	assert.Error(t, err)
}
