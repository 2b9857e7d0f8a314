package bridge

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rickaym/plywood/internal/project"
)

// Channel is a bidirectional message stream to one presentation peer
type Channel interface {
	Send(ctx context.Context, m Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// Bridge answers presentation requests from the read side of the store
type Bridge struct {
	loader *project.Loader
}

// New returns a bridge over the given loader
func New(loader *project.Loader) *Bridge {
	return &Bridge{loader: loader}
}

// Handle answers a single request. Failures come back as an Error
// message, never as a Go error; the serve loop stays up.
func (b *Bridge) Handle(req Message) Message {

	switch r := req.(type) {

	case OpenGallery:

		p, err := b.loader.Load(r.ID)
		if err != nil {
			return Error{Reason: err.Error()}
		}

		return projectPayload(p)

	case ListChapters:

		p, err := b.loader.Load(r.ID)
		if err != nil {
			return Error{Reason: err.Error()}
		}

		names := make([]string, 0, len(p.Chapters))
		for _, c := range p.Chapters {
			names = append(names, c.Name)
		}

		return Chapters{ID: r.ID, Names: names}

	case InsertSnippet:

		p, err := b.loader.Load(r.ID)
		if err != nil {
			return Error{Reason: err.Error()}
		}

		for _, c := range p.Chapters {
			if c.Name != r.Chapter {
				continue
			}
			if r.Asset < 0 || r.Asset >= len(c.Assets) {
				return Error{Reason: fmt.Sprintf("chapter %q has no asset %d", r.Chapter, r.Asset)}
			}
			a := c.Assets[r.Asset]
			return Snippet{CellType: a.CellType, Code: a.Code}
		}

		return Error{Reason: fmt.Sprintf("gallery %q has no chapter %q", r.ID, r.Chapter)}
	}

	return Error{Reason: fmt.Sprintf("unexpected request kind %q", req.Kind())}
}

// Serve pumps requests from ch through Handle until the channel or
// the context ends
func (b *Bridge) Serve(ctx context.Context, ch Channel) {

	defer ch.Close()

	for {

		req, err := ch.Receive(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.WithField("error", err.Error()).Debug("bridge channel closed")
			}
			return
		}

		if err := ch.Send(ctx, b.Handle(req)); err != nil {
			log.WithField("error", err.Error()).Debug("bridge send failed")
			return
		}
	}
}

func projectPayload(p project.Project) ProjectPayload {

	out := ProjectPayload{
		ID:          p.ID,
		ProjectName: p.Config.ProjectName,
		Description: p.Config.Description,
		Version:     p.Config.ContentVersion,
		IconPath:    p.IconPath,
		PreviewPath: p.PreviewPath,
		Footer:      p.Config.Footer,
	}

	for _, c := range p.Chapters {

		chapter := ChapterPayload{Name: c.Name}

		for _, a := range c.Assets {
			chapter.Assets = append(chapter.Assets, AssetPayload{
				ImagePath: a.ImagePath,
				CellType:  a.CellType,
				Style:     sanitize(a.CSS),
				Code:      a.Code,
			})
		}

		out.Chapters = append(out.Chapters, chapter)
	}

	return out
}
