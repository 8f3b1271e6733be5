// Package document turns hyperparameter document text into a tree of typed
// nodes plus a table of named anchors.
//
// The text is YAML (JSON and JSON-with-comments files are accepted by
// extension). Anchors (&name) are registered once; every alias (*name)
// resolves to the same *Node, so later stages can tell two uses of one
// shared block apart from two blocks that merely look alike. Merge keys
// (<<: *name) build a new mapping that remembers the anchor it was based on.
package document

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"hpresolve/internal/diag"
	"hpresolve/internal/literal"
)

// HolderPrefix marks top-level keys that only hold anchors. They are
// parsed but kept out of Root.
const HolderPrefix = "__"

// Document is one parsed source file.
type Document struct {
	Path string
	// Root is the top-level mapping without anchor-holder keys.
	Root *Node
	// Anchors in definition order.
	Anchors []*Anchor
	// Holders lists the anchor-holder keys that were dropped from Root.
	Holders []string
	// Violations found while parsing. A document with violations is still
	// fully built; offending scalars fall back to strings.
	Violations diag.List

	byName map[string]*Anchor
}

// Anchor returns the last anchor defined under name.
func (d *Document) Anchor(name string) (*Anchor, bool) {
	a, ok := d.byName[name]
	return a, ok
}

var (
	unknownAnchorRe = regexp.MustCompile(`unknown anchor '([^']*)' referenced`)
	lineRe          = regexp.MustCompile(`line (\d+)`)
)

// Parse builds a Document from YAML text. The error is non-nil only when
// no tree could be built at all (syntax errors, forward aliases); it is then
// a diag.List. Everything else lands in Document.Violations.
func Parse(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, diag.List{syntaxViolation(path, err)}
	}

	p := &parser{
		doc:     &Document{Path: path, byName: map[string]*Anchor{}},
		built:   map[*yaml.Node]*Node{},
		pending: map[*yaml.Node]string{},
	}

	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind == 0 || top.Kind == yaml.DocumentNode {
		p.doc.Root = NewMapping()
		p.doc.Root.File = path
		return p.doc, nil
	}
	tree := p.node(top, "")
	if tree.Kind != MappingNode {
		return nil, diag.List{diag.New(diag.MalformedDocument,
			"top level must be a mapping of sections, found a %s", tree.Kind).In(tree.Source())}
	}

	filtered := tree.ShallowCopy()
	filtered.Anchor = tree.Anchor
	for _, k := range tree.Keys() {
		if strings.HasPrefix(k, HolderPrefix) {
			filtered.Delete(k)
			p.doc.Holders = append(p.doc.Holders, k)
		}
	}
	p.doc.Root = filtered
	return p.doc, nil
}

func syntaxViolation(path string, err error) diag.Violation {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	if m := unknownAnchorRe.FindStringSubmatch(msg); m != nil {
		return diag.New(diag.UnresolvedAnchor,
			"alias *%s is used before anchor &%s is defined", m[1], m[1]).In(path).FromAnchor(m[1])
	}
	src := path
	if m := lineRe.FindStringSubmatch(msg); m != nil {
		src = path + ":" + m[1]
	}
	return diag.New(diag.MalformedDocument, "%s", msg).In(src)
}

type parser struct {
	doc     *Document
	built   map[*yaml.Node]*Node
	pending map[*yaml.Node]string
}

func (p *parser) violation(v diag.Violation) {
	p.doc.Violations.Add(v)
}

func (p *parser) position(n *Node, y *yaml.Node) *Node {
	n.File = p.doc.Path
	n.Line = y.Line
	n.Column = y.Column
	return n
}

func (p *parser) node(y *yaml.Node, path string) *Node {
	if y.Kind == yaml.AliasNode {
		return p.alias(y, path)
	}

	if y.Anchor != "" {
		if prev, dup := p.doc.byName[y.Anchor]; dup {
			p.violation(diag.New(diag.DuplicateAnchor,
				"anchor &%s redefined; first defined at %s", y.Anchor, prev.Source).
				At(path).In(fmt.Sprintf("%s:%d", p.doc.Path, y.Line)).FromAnchor(y.Anchor))
		}
		p.pending[y] = y.Anchor
	}

	var n *Node
	switch y.Kind {
	case yaml.ScalarNode:
		n = p.scalar(y, path)
	case yaml.SequenceNode:
		n = p.position(NewSequence(), y)
		for i, item := range y.Content {
			n.Items = append(n.Items, p.node(item, fmt.Sprintf("%s[%d]", path, i)))
		}
	case yaml.MappingNode:
		n = p.mapping(y, path)
	default:
		n = p.position(NewScalar(literal.NullValue()), y)
	}

	if y.Anchor != "" {
		delete(p.pending, y)
		a := &Anchor{
			ID:     AnchorID(p.doc.Path, y.Anchor),
			Name:   y.Anchor,
			Source: fmt.Sprintf("%s:%d", p.doc.Path, y.Line),
			Node:   n,
		}
		n.Anchor = a
		p.doc.byName[y.Anchor] = a
		p.doc.Anchors = append(p.doc.Anchors, a)
	}
	p.built[y] = n
	return n
}

func (p *parser) alias(y *yaml.Node, path string) *Node {
	if name, open := p.pending[y.Alias]; open {
		p.violation(diag.New(diag.UnresolvedAnchor,
			"alias *%s refers to the anchor that encloses it", name).
			At(path).In(fmt.Sprintf("%s:%d", p.doc.Path, y.Line)).FromAnchor(name))
		return p.position(NewScalar(literal.NullValue()), y)
	}
	if n, ok := p.built[y.Alias]; ok {
		if n.Anchor != nil {
			n.Anchor.Uses++
		}
		return n
	}
	p.violation(diag.New(diag.UnresolvedAnchor, "alias *%s has no anchor", y.Value).
		At(path).In(fmt.Sprintf("%s:%d", p.doc.Path, y.Line)).FromAnchor(y.Value))
	return p.position(NewScalar(literal.NullValue()), y)
}

func (p *parser) scalar(y *yaml.Node, path string) *Node {
	n := p.position(&Node{Kind: ScalarNode}, y)
	quoted := y.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0
	// yaml.v3 resolves every plain non-numeric token to !!str; only an
	// explicit !!str tag forces a string.
	if quoted || (y.Style&yaml.TaggedStyle != 0 && y.ShortTag() == "!!str") {
		n.Scalar = literal.ParseQuoted(y.Value)
		return n
	}
	v, err := literal.Parse(y.Value)
	n.Scalar = v
	if err != nil {
		n.Err = err
		var me *literal.MalformedError
		reason := err.Error()
		if errors.As(err, &me) {
			reason = fmt.Sprintf("%q: %s", me.Token, me.Reason)
		}
		p.violation(diag.New(diag.MalformedLiteral, "%s", reason).At(path).In(n.Source()))
	}
	return n
}

func (p *parser) mapping(y *yaml.Node, path string) *Node {
	n := p.position(NewMapping(), y)
	var bases []*Node
	local := NewMapping()

	for i := 0; i+1 < len(y.Content); i += 2 {
		k, v := y.Content[i], y.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			p.violation(diag.New(diag.MalformedDocument, "mapping keys must be scalars").
				At(path).In(fmt.Sprintf("%s:%d", p.doc.Path, k.Line)))
			continue
		}
		if k.Value == "<<" && k.Style == 0 {
			bases = append(bases, p.mergeBases(v, joinPath(path, "<<"))...)
			continue
		}
		child := p.node(v, joinPath(path, k.Value))
		if local.Has(k.Value) {
			p.violation(diag.New(diag.MalformedDocument, "key %q defined more than once", k.Value).
				At(joinPath(path, k.Value)).In(fmt.Sprintf("%s:%d", p.doc.Path, k.Line)))
			continue
		}
		local.Set(k.Value, child)
	}

	for _, b := range bases {
		for _, key := range b.Keys() {
			if !n.Has(key) {
				v, _ := b.Get(key)
				n.Set(key, v)
			}
		}
		if n.Base == nil {
			n.Base = b.Origin()
		}
	}
	for _, key := range local.Keys() {
		v, _ := local.Get(key)
		n.Set(key, v)
	}
	return n
}

func (p *parser) mergeBases(y *yaml.Node, path string) []*Node {
	var candidates []*Node
	if y.Kind == yaml.SequenceNode {
		for i, item := range y.Content {
			candidates = append(candidates, p.node(item, path+"["+strconv.Itoa(i)+"]"))
		}
	} else {
		candidates = append(candidates, p.node(y, path))
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c.Kind != MappingNode {
			p.violation(diag.New(diag.MalformedDocument, "merge key expects a mapping, found a %s", c.Kind).
				At(path).In(c.Source()))
			continue
		}
		out = append(out, c)
	}
	return out
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
