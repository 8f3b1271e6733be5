package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"hpresolve/internal/literal"
)

// ErrNotFound is returned by Lookup when no section carries the key.
var ErrNotFound = errors.New("key not found")

// Section returns a top-level section.
func (d *Document) Section(name string) (*Node, bool) {
	return d.Root.Get(name)
}

// Sections returns the top-level section names in document order.
func (d *Document) Sections() []string {
	return d.Root.Keys()
}

// Lookup finds key in any top-level mapping section. A key present in more
// than one section is an error naming them.
func (d *Document) Lookup(key string) (*Node, string, error) {
	var (
		found   *Node
		section string
		groups  []string
	)
	for _, name := range d.Root.Keys() {
		sec, _ := d.Root.Get(name)
		if v, ok := sec.Get(key); ok {
			found, section = v, name
			groups = append(groups, name)
		}
	}
	switch len(groups) {
	case 0:
		return nil, "", fmt.Errorf("%q: %w", key, ErrNotFound)
	case 1:
		return found, section, nil
	}
	sort.Strings(groups)
	return nil, "", fmt.Errorf("key %q is ambiguous: found in sections %s", key, strings.Join(groups, ", "))
}

// SetValue sets section.name to the literal token. The value is only
// replaced when it is missing, null or false, unless overwrite is set. It
// reports whether the document changed.
func (d *Document) SetValue(section, name, token string, overwrite bool) (bool, error) {
	return d.SetPath(section+"."+name, token, overwrite)
}

// SetPath is SetValue for a dotted path such as fit.optimizer_kwargs.lr.
// Missing intermediate mappings are created. Nodes shared with aliases are
// copied, never edited in place.
func (d *Document) SetPath(path, token string, overwrite bool) (bool, error) {
	keys := strings.Split(path, ".")
	for _, k := range keys {
		if k == "" {
			return false, fmt.Errorf("set %q: empty path element", path)
		}
	}
	if len(keys) < 2 {
		return false, fmt.Errorf("set %q: path must name a section and a field", path)
	}

	value, err := literal.Parse(token)
	if err != nil {
		return false, fmt.Errorf("set %s: %w", path, err)
	}

	if cur := d.at(keys); !overwrite && !replaceable(cur) {
		return false, nil
	}

	root, err := setIn(d.Root, keys, value, path)
	if err != nil {
		return false, err
	}
	d.Root = root
	return true, nil
}

func (d *Document) at(keys []string) *Node {
	n := d.Root
	for _, k := range keys {
		next, ok := n.Get(k)
		if !ok {
			return nil
		}
		n = next
	}
	return n
}

func replaceable(n *Node) bool {
	if n.IsNull() {
		return true
	}
	return n.Kind == ScalarNode && n.Scalar.Kind == literal.Boolean && !n.Scalar.Bool
}

func setIn(n *Node, keys []string, value literal.TypedValue, path string) (*Node, error) {
	var c *Node
	switch {
	case n.IsNull():
		c = NewMapping()
	case n.Kind == MappingNode:
		c = n.ShallowCopy()
	default:
		return nil, fmt.Errorf("set %s: cannot set %q inside a %s", path, keys[0], n.Kind)
	}

	if len(keys) == 1 {
		leaf := NewScalar(value)
		leaf.File = "<set>"
		c.Set(keys[0], leaf)
		return c, nil
	}
	child, _ := c.Get(keys[0])
	updated, err := setIn(child, keys[1:], value, path)
	if err != nil {
		return nil, err
	}
	c.Set(keys[0], updated)
	return c, nil
}
