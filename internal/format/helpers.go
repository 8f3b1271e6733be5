package format

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"hpresolve/internal/hparams"
	"hpresolve/internal/literal"
)

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

// Value renders a kwarg value in its document spelling: typed literals use
// their token form, sequences are bracketed and mappings braced with
// sorted keys.
func Value(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case literal.TypedValue:
		return t.String()
	case []any:
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = Value(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		return "{" + pairs(t, ": ") + "}"
	case hparams.Kwargs:
		return "{" + pairs(t, ": ") + "}"
	}
	return fmt.Sprint(v)
}

// Kwargs renders a keyword mapping as "k=v, k=v" in key order.
func Kwargs(m map[string]any) string {
	return pairs(m, "=")
}

func pairs(m map[string]any, sep string) string {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + sep + Value(m[k])
	}
	return strings.Join(out, ", ")
}
