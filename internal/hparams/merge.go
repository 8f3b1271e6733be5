package hparams

import (
	"fmt"

	"hpresolve/internal/document"
)

// SequencePolicy decides how a task-level sequence combines with the
// global one.
type SequencePolicy int

const (
	// ReplaceSequences: a task-level sequence replaces the global one, an
	// explicit empty sequence included. An absent key keeps the global one.
	ReplaceSequences SequencePolicy = iota
	// ReplaceNonEmpty: like ReplaceSequences, but an empty task-level
	// sequence keeps the global one.
	ReplaceNonEmpty
	// AppendSequences: task-level items follow the global items.
	AppendSequences
)

var policyNames = map[SequencePolicy]string{
	ReplaceSequences: "replace",
	ReplaceNonEmpty:  "replace-nonempty",
	AppendSequences:  "append",
}

func (p SequencePolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("SequencePolicy(%d)", int(p))
}

// ParsePolicy maps a policy name to its SequencePolicy.
func ParsePolicy(name string) (SequencePolicy, error) {
	for p, s := range policyNames {
		if s == name {
			return p, nil
		}
	}
	return ReplaceSequences, fmt.Errorf("unknown sequence policy %q (want replace, replace-nonempty or append)", name)
}

// Merge overlays override on base and returns the result. Mappings merge
// key by key, recursively; for anything else the override wins, except
// that sequences follow policy. Neither input is modified and untouched
// subtrees are shared, so alias identity survives the merge.
func Merge(base, override *document.Node, policy SequencePolicy) *document.Node {
	switch {
	case override == nil:
		return base
	case base == nil:
		return override
	}

	if base.Kind == document.MappingNode && override.Kind == document.MappingNode {
		out := document.NewMapping()
		out.File, out.Line, out.Column = override.File, override.Line, override.Column
		for _, k := range base.Keys() {
			v, _ := base.Get(k)
			out.Set(k, v)
		}
		for _, k := range override.Keys() {
			ov, _ := override.Get(k)
			bv, _ := base.Get(k)
			out.Set(k, Merge(bv, ov, policy))
		}
		return out
	}

	if base.Kind == document.SequenceNode && override.Kind == document.SequenceNode {
		switch policy {
		case ReplaceNonEmpty:
			if override.Len() == 0 {
				return base
			}
		case AppendSequences:
			items := make([]*document.Node, 0, base.Len()+override.Len())
			items = append(items, base.Items...)
			items = append(items, override.Items...)
			out := document.NewSequence(items...)
			out.File, out.Line, out.Column = override.File, override.Line, override.Column
			return out
		}
	}
	return override
}
