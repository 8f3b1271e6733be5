package literal

import (
	"encoding/json"
	"math"
	"strconv"
)

// TypedValue is a parsed scalar. Only the field matching Kind is meaningful;
// a Percentage keeps its fraction in Float (5pct is 0.05).
type TypedValue struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Text  string
}

func NullValue() TypedValue { return TypedValue{Kind: Null} }
func NewInteger(i int64) TypedValue { return TypedValue{Kind: Integer, Int: i} }
func NewFloat(f float64) TypedValue { return TypedValue{Kind: Float, Float: f} }
func NewBool(b bool) TypedValue { return TypedValue{Kind: Boolean, Bool: b} }
func NewString(s string) TypedValue { return TypedValue{Kind: String, Text: s} }
func NewPath(s string) TypedValue { return TypedValue{Kind: Path, Text: s} }
func NewPercentage(frac float64) TypedValue { return TypedValue{Kind: Percentage, Float: frac} }

// IsNull reports whether v is the null literal.
func (v TypedValue) IsNull() bool { return v.Kind == Null }

// Numeric returns v as a float64 for Integer, Float and Percentage values.
func (v TypedValue) Numeric() (float64, bool) {
	switch v.Kind {
	case Integer:
		return float64(v.Int), true
	case Float, Percentage:
		return v.Float, true
	}
	return 0, false
}

// Textual returns the text of String and Path values.
func (v TypedValue) Textual() (string, bool) {
	switch v.Kind {
	case String, Path:
		return v.Text, true
	}
	return "", false
}

// Placeholders lists the template placeholders of a Path value.
func (v TypedValue) Placeholders() []string {
	if v.Kind != Path {
		return nil
	}
	return Placeholders(v.Text)
}

// String renders v as a token Parse maps back to an equal value.
func (v TypedValue) String() string {
	switch v.Kind {
	case Null:
		return "null"
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return formatFloat(v.Float)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Percentage:
		return strconv.FormatFloat(v.Float*100, 'g', 12, 64) + "pct"
	default:
		return v.Text
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}

// Interface returns v as a plain Go value: nil, int64, float64, bool or
// string. Percentages become their fraction.
func (v TypedValue) Interface() any {
	switch v.Kind {
	case Null:
		return nil
	case Integer:
		return v.Int
	case Float, Percentage:
		return v.Float
	case Boolean:
		return v.Bool
	default:
		return v.Text
	}
}

// MarshalYAML keeps percentages in their "pct" form so a written artifact
// parses back to the same kinds.
func (v TypedValue) MarshalYAML() (any, error) {
	if v.Kind == Percentage {
		return v.String(), nil
	}
	return v.Interface(), nil
}

// MarshalJSON writes the plain value. JSON has no infinities, so
// non-finite floats are written as their YAML token.
func (v TypedValue) MarshalJSON() ([]byte, error) {
	if v.Kind == Float && (math.IsInf(v.Float, 0) || math.IsNaN(v.Float)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}

// ApproxEqual compares two values, allowing numeric kinds to differ by at
// most tol. Non-numeric values compare exactly.
func ApproxEqual(a, b TypedValue, tol float64) bool {
	fa, okA := a.Numeric()
	fb, okB := b.Numeric()
	if okA && okB {
		return math.Abs(fa-fb) <= tol
	}
	return a == b
}
