package gallery

import (
	"fmt"
	"path"
	"strings"

	"github.com/rickaym/plywood/internal/project"
)

// Item is the closed set of node kinds in the gallery tree. Each kind
// carries only the fields it needs; every operation over items is a
// single switch in this package.
type Item interface {
	isItem()
}

// Category groups installed galleries by origin
type Category struct {
	Name   string
	Remote bool
}

// Gallery is an installed gallery node
type Gallery struct {
	Project project.Project
}

// Chapter is one named chapter within a gallery
type Chapter struct {
	Project project.Project
	Index   int
}

// Section is a single asset leaf
type Section struct {
	Name  string
	Asset project.Asset
}

func (Category) isItem() {}
func (Gallery) isItem()  {}
func (Chapter) isItem()  {}
func (Section) isItem()  {}

// Lister supplies the installed galleries for one category
type Lister func(external bool) ([]project.Project, error)

// Tree walks installed galleries as category → gallery → chapter →
// section nodes
type Tree struct {
	list Lister
}

// NewTree returns a tree backed by the given lister
func NewTree(list Lister) *Tree {
	return &Tree{list: list}
}

// Roots returns the two fixed category nodes
func (t *Tree) Roots() []Item {
	return []Item{
		Category{Name: "Remote Galleries", Remote: true},
		Category{Name: "Local Galleries", Remote: false},
	}
}

// Children expands a node one level
func (t *Tree) Children(it Item) ([]Item, error) {

	switch v := it.(type) {

	case Category:

		projects, err := t.list(v.Remote)
		if err != nil {
			return nil, err
		}

		items := make([]Item, 0, len(projects))
		for _, p := range projects {
			items = append(items, Gallery{Project: p})
		}
		return items, nil

	case Gallery:

		items := make([]Item, 0, len(v.Project.Chapters))
		for i := range v.Project.Chapters {
			items = append(items, Chapter{Project: v.Project, Index: i})
		}
		return items, nil

	case Chapter:

		chapter := v.Project.Chapters[v.Index]

		items := make([]Item, 0, len(chapter.Assets))
		for _, a := range chapter.Assets {
			name := path.Base(a.ImagePath)
			name = strings.TrimSuffix(name, path.Ext(name))
			items = append(items, Section{Name: name, Asset: a})
		}
		return items, nil

	case Section:
		return nil, nil
	}

	return nil, nil
}

// Label is the display name of a node
func Label(it Item) string {

	switch v := it.(type) {
	case Category:
		return v.Name
	case Gallery:
		return v.Project.Config.ProjectName
	case Chapter:
		return v.Project.Chapters[v.Index].Name
	case Section:
		return v.Name
	}

	return ""
}

// Description is the secondary text shown beside a node's label
func Description(it Item) string {

	switch v := it.(type) {
	case Gallery:
		return "v" + v.Project.Config.ContentVersion
	case Chapter:
		return fmt.Sprintf("%d items", len(v.Project.Chapters[v.Index].Assets))
	}

	return ""
}
