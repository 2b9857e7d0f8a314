package bridge

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phayes/freeport"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickaym/plywood/internal/index"
	"github.com/rickaym/plywood/internal/manifest"
	"github.com/rickaym/plywood/internal/project"
	"github.com/rickaym/plywood/internal/store"
)

func init() {
	log.SetLevel(log.PanicLevel)
}

const galleryID = "https://raw.githubusercontent.com/team/wood/main"

const paramsDoc = `{
  "First": [
    {"image_path": "img/one.png", "celltype": "code", "css": "width: 20px; position: fixed", "code": "one()"}
  ]
}`

// seededBridge installs one external gallery and returns a bridge
// that can serve it
func seededBridge(t *testing.T) *Bridge {

	st := store.New(afero.NewMemMapFs(), "/data")
	require.NoError(t, st.EnsureLayout())

	idx := index.New(st)

	cfg := manifest.Config{
		ProjectName:    "Wood Gallery",
		RepositoryURL:  galleryID,
		ContentVersion: "1.1.0",
		Description:    "fixture",
		ParametersPath: "gallery_parameters.json",
	}

	raw, err := cfg.Marshal()
	require.NoError(t, err)

	require.NoError(t, st.Fs.MkdirAll(st.LocalDir(cfg.ProjectName), 0755))
	require.NoError(t, st.Fs.WriteFile(st.LocalFile(cfg.ProjectName, manifest.DefaultFilename), raw, 0644))
	require.NoError(t, st.Fs.WriteFile(st.LocalFile(cfg.ProjectName, "gallery_parameters.json"), []byte(paramsDoc), 0644))
	require.NoError(t, st.Fs.WriteFile(st.LocalFile(cfg.ProjectName, "one.png"), []byte("1"), 0644))

	require.NoError(t, idx.Add(galleryID, index.Entry{
		URI:         galleryID,
		ConfigPath:  st.LocalFile(cfg.ProjectName, manifest.DefaultFilename),
		ProjectName: cfg.ProjectName,
		Version:     cfg.ContentVersion,
		External:    true,
	}))

	return New(project.NewLoader(st, idx))
}

func TestHandleOpenGallerySanitizesStyle(t *testing.T) {

	b := seededBridge(t)

	resp := b.Handle(OpenGallery{ID: galleryID})

	payload, ok := resp.(ProjectPayload)
	require.True(t, ok, "got %T", resp)

	assert.Equal(t, "Wood Gallery", payload.ProjectName)
	require.Len(t, payload.Chapters, 1)
	require.Len(t, payload.Chapters[0].Assets, 1)

	// only allow-listed declarations reach the presentation side
	assert.Equal(t, "width: 20px", payload.Chapters[0].Assets[0].Style)
	assert.Equal(t, "one()", payload.Chapters[0].Assets[0].Code)
}

func TestHandleListChapters(t *testing.T) {

	b := seededBridge(t)

	resp := b.Handle(ListChapters{ID: galleryID})

	chapters, ok := resp.(Chapters)
	require.True(t, ok, "got %T", resp)
	assert.Equal(t, []string{"First"}, chapters.Names)
}

func TestHandleInsertSnippet(t *testing.T) {

	b := seededBridge(t)

	resp := b.Handle(InsertSnippet{ID: galleryID, Chapter: "First", Asset: 0})

	snippet, ok := resp.(Snippet)
	require.True(t, ok, "got %T", resp)
	assert.Equal(t, "one()", snippet.Code)

	resp = b.Handle(InsertSnippet{ID: galleryID, Chapter: "First", Asset: 7})
	_, ok = resp.(Error)
	assert.True(t, ok, "out-of-range asset must error")

	resp = b.Handle(InsertSnippet{ID: galleryID, Chapter: "Nope", Asset: 0})
	_, ok = resp.(Error)
	assert.True(t, ok, "unknown chapter must error")
}

func TestHandleUnknownGallery(t *testing.T) {

	b := seededBridge(t)

	resp := b.Handle(OpenGallery{ID: "https://example.com/missing"})

	e, ok := resp.(Error)
	require.True(t, ok, "got %T", resp)
	assert.Contains(t, e.Reason, "no gallery registered")
}

func TestDecodeRejectsUnknownKind(t *testing.T) {

	_, err := Decode([]byte(`{"kind":"launchMissiles","payload":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bridge message kind")
}

func TestEncodeDecode(t *testing.T) {

	data, err := Encode(InsertSnippet{ID: "x", Chapter: "First", Asset: 2})
	require.NoError(t, err)

	m, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, InsertSnippet{ID: "x", Chapter: "First", Asset: 2}, m)
}

func TestServeOverWebsocket(t *testing.T) {

	b := seededBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	addr := fmt.Sprintf("127.0.0.1:%d", port)

	srv := &http.Server{Addr: addr, Handler: Router(ctx, b)}
	go srv.ListenAndServe()
	defer srv.Close()

	time.Sleep(100 * time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/bridge", nil)
	require.NoError(t, err)
	defer conn.Close()

	req, err := Encode(ListChapters{ID: galleryID})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	m, err := Decode(data)
	require.NoError(t, err)

	chapters, ok := m.(Chapters)
	require.True(t, ok, "got %T", m)
	assert.Equal(t, []string{"First"}, chapters.Names)
}

func TestUpgradeRefusesCrossOrigin(t *testing.T) {

	b := seededBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	addr := fmt.Sprintf("127.0.0.1:%d", port)

	srv := &http.Server{Addr: addr, Handler: Router(ctx, b)}
	go srv.ListenAndServe()
	defer srv.Close()

	time.Sleep(100 * time.Millisecond)

	header := http.Header{"Origin": []string{"https://example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/bridge", header)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/bridge", header)
	require.NoError(t, err)
	conn.Close()
}
