package archive

import (
	"strings"

	"github.com/zackbart/trove/internal/classify"
)

// Group is a category filter offered by the archive page.
type Group int

const (
	GroupAll Group = iota
	GroupMedia
	GroupImages
	GroupDocuments
	GroupCode
	GroupOther
)

// Groups lists filters in tab order.
var Groups = []Group{GroupAll, GroupMedia, GroupImages, GroupDocuments, GroupCode, GroupOther}

func (g Group) String() string {
	switch g {
	case GroupMedia:
		return "media"
	case GroupImages:
		return "images"
	case GroupDocuments:
		return "documents"
	case GroupCode:
		return "code"
	case GroupOther:
		return "other"
	default:
		return "all"
	}
}

// Next cycles to the following filter.
func (g Group) Next() Group {
	return Groups[(int(g)+1)%len(Groups)]
}

// Includes reports whether a file of kind k belongs to the group.
func (g Group) Includes(k classify.Kind) bool {
	switch g {
	case GroupAll:
		return true
	case GroupMedia:
		return k.Category == classify.Video || k.Category == classify.Audio
	case GroupImages:
		return k.Category == classify.Image
	case GroupDocuments:
		return k.Category == classify.PDF || k.Category == classify.Markup
	case GroupCode:
		return k.Category == classify.Script || k.Category == classify.PlainCode
	default:
		return k.Category == classify.Unknown
	}
}

// Collection is the ordered set of imported files. It only grows; there is
// a single writer, the import path on the UI goroutine.
type Collection struct {
	files  []*File
	byPath map[string]*File
	cls    *classify.Classifier
}

func NewCollection(cls *classify.Classifier) *Collection {
	return &Collection{byPath: make(map[string]*File), cls: cls}
}

// Add appends f unless a file with the same disk path was already imported.
// It reports whether f was added.
func (c *Collection) Add(f *File) bool {
	if f.Path != "" {
		if _, dup := c.byPath[f.Path]; dup {
			return false
		}
		c.byPath[f.Path] = f
	}
	c.files = append(c.files, f)
	return true
}

func (c *Collection) Len() int { return len(c.files) }

// All returns a copy of the files in insertion order.
func (c *Collection) All() []*File {
	return append([]*File(nil), c.files...)
}

// Kind classifies f with the collection's classifier.
func (c *Collection) Kind(f *File) classify.Kind {
	return c.cls.Classify(f.Name, f.MediaType)
}

// Filter returns the files in group whose names contain query
// (case-insensitive), preserving insertion order. The result is a fresh
// slice the caller owns.
func (c *Collection) Filter(g Group, query string) []*File {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]*File, 0, len(c.files))
	for _, f := range c.files {
		if !g.Includes(c.Kind(f)) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(f.Name), query) {
			continue
		}
		out = append(out, f)
	}
	return out
}
