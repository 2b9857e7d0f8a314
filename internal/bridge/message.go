// Package bridge is the presentation boundary: a request/response
// protocol over an abstract bidirectional channel. The core packages
// answer requests; the transport (a websocket implementation lives in
// this package) is swappable and nothing below here depends on it.
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/rickaym/plywood/internal/gallery"
)

// Kind tags a message on the wire
type Kind string

const (
	// requests
	KindOpenGallery   Kind = "openGallery"
	KindListChapters  Kind = "listChapters"
	KindInsertSnippet Kind = "insertSnippet"

	// responses
	KindProject  Kind = "project"
	KindChapters Kind = "chapters"
	KindSnippet  Kind = "snippet"
	KindError    Kind = "error"
)

// Message is the closed set of frames crossing the bridge
type Message interface {
	Kind() Kind
}

// OpenGallery asks for a fully-resolved gallery payload
type OpenGallery struct {
	ID string `json:"id"`
}

// ListChapters asks for the chapter names of a gallery
type ListChapters struct {
	ID string `json:"id"`
}

// InsertSnippet asks for the code of one asset, addressed by chapter
// name and position within the chapter
type InsertSnippet struct {
	ID      string `json:"id"`
	Chapter string `json:"chapter"`
	Asset   int    `json:"asset"`
}

// AssetPayload is one asset with its style already sanitized
type AssetPayload struct {
	ImagePath string `json:"imagePath"`
	CellType  string `json:"celltype"`
	Style     string `json:"style"`
	Code      string `json:"code"`
}

// ChapterPayload is one named chapter of assets
type ChapterPayload struct {
	Name   string         `json:"name"`
	Assets []AssetPayload `json:"assets"`
}

// ProjectPayload answers OpenGallery
type ProjectPayload struct {
	ID          string           `json:"id"`
	ProjectName string           `json:"projectName"`
	Description string           `json:"description"`
	Version     string           `json:"version"`
	IconPath    string           `json:"iconPath"`
	PreviewPath string           `json:"previewPath"`
	Footer      string           `json:"footer"`
	Chapters    []ChapterPayload `json:"chapters"`
}

// Chapters answers ListChapters
type Chapters struct {
	ID    string   `json:"id"`
	Names []string `json:"names"`
}

// Snippet answers InsertSnippet with the text to place in a document
type Snippet struct {
	CellType string `json:"celltype"`
	Code     string `json:"code"`
}

// Error answers any request that could not be served
type Error struct {
	Reason string `json:"reason"`
}

func (OpenGallery) Kind() Kind    { return KindOpenGallery }
func (ListChapters) Kind() Kind   { return KindListChapters }
func (InsertSnippet) Kind() Kind  { return KindInsertSnippet }
func (ProjectPayload) Kind() Kind { return KindProject }
func (Chapters) Kind() Kind       { return KindChapters }
func (Snippet) Kind() Kind        { return KindSnippet }
func (Error) Kind() Kind          { return KindError }

type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Encode frames a message for the wire
func Encode(m Message) ([]byte, error) {

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Kind: m.Kind(), Payload: payload})
}

// Decode unframes a wire message, rejecting unknown kinds
func Decode(data []byte) (Message, error) {

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed bridge frame: %w", err)
	}

	var m Message

	switch env.Kind {
	case KindOpenGallery:
		m = &OpenGallery{}
	case KindListChapters:
		m = &ListChapters{}
	case KindInsertSnippet:
		m = &InsertSnippet{}
	case KindProject:
		m = &ProjectPayload{}
	case KindChapters:
		m = &Chapters{}
	case KindSnippet:
		m = &Snippet{}
	case KindError:
		m = &Error{}
	default:
		return nil, fmt.Errorf("unknown bridge message kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Payload, m); err != nil {
		return nil, fmt.Errorf("bridge %s payload: %w", env.Kind, err)
	}

	// return by value so callers type-switch on concrete kinds
	switch v := m.(type) {
	case *OpenGallery:
		return *v, nil
	case *ListChapters:
		return *v, nil
	case *InsertSnippet:
		return *v, nil
	case *ProjectPayload:
		return *v, nil
	case *Chapters:
		return *v, nil
	case *Snippet:
		return *v, nil
	case *Error:
		return *v, nil
	}

	return nil, fmt.Errorf("unknown bridge message kind %q", env.Kind)
}

// sanitize maps a gallery asset style through the allow-list
func sanitize(css string) string {
	return gallery.ExtractSafeCSS(css).String()
}
