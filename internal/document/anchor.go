package document

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"hpresolve/internal/diag"
)

// anchorNamespace seeds anchor ids so the same file and anchor name always
// map to the same id across runs.
var anchorNamespace = uuid.MustParse("6f1c3c0e-6d2b-5a43-9a57-1f0b8e0d2c11")

// Anchor is a named, once-defined sub-document. Every alias site of the
// anchor shares this entry, so problems flagged on it are seen from all of
// them.
type Anchor struct {
	ID     uuid.UUID
	Name   string
	Source string
	Node   *Node
	// Uses counts the alias sites (*name and <<: *name) in the document.
	Uses int

	mu       sync.Mutex
	problems diag.List
}

// AnchorID returns the id of anchor name defined in file.
func AnchorID(file, name string) uuid.UUID {
	return uuid.NewSHA1(anchorNamespace, []byte(file+"#"+name))
}

// Flag records a violation against the anchor. Safe for concurrent use.
func (a *Anchor) Flag(v diag.Violation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.problems {
		if p == v {
			return
		}
	}
	a.problems = append(a.problems, v)
}

// Problems returns the violations flagged so far.
func (a *Anchor) Problems() diag.List {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append(diag.List(nil), a.problems...)
}

// Valid reports whether nothing has been flagged on the anchor.
func (a *Anchor) Valid() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.problems) == 0
}

// AnchorIndex looks anchors up by id across several documents.
type AnchorIndex map[uuid.UUID]*Anchor

// IndexAnchors builds an AnchorIndex over docs.
func IndexAnchors(docs ...*Document) AnchorIndex {
	idx := AnchorIndex{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, a := range d.Anchors {
			idx[a.ID] = a
		}
	}
	return idx
}

// Flagged returns the anchors carrying problems, ordered by name.
func (idx AnchorIndex) Flagged() []*Anchor {
	var out []*Anchor
	for _, a := range idx {
		if !a.Valid() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Source < out[j].Source
	})
	return out
}
