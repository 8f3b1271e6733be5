// Package literal parses the raw scalar tokens of a hyperparameter document
// into typed values.
//
// The grammar covers integers, plain and scientific-notation floats,
// booleans, nulls, percentage-suffixed numbers ("5pct"), bare or quoted
// strings, and path templates carrying format placeholders such as
// "model/@epoch_{epoch:02d}.h5". Placeholders are opaque here: they are
// recorded, never expanded.
//
// Parsing is pure. Range checks (a percentage within [0,1], for instance)
// belong to whoever consumes the value.
package literal

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags a TypedValue.
type Kind int

const (
	Null Kind = iota
	Integer
	Float
	Boolean
	String
	Percentage
	Path
)

var kindNames = [...]string{
	Null:       "Null",
	Integer:    "Integer",
	Float:      "Float",
	Boolean:    "Boolean",
	String:     "String",
	Percentage: "Percentage",
	Path:       "Path",
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= Null && k <= Path }

// ParseKind maps a kind name (case-insensitive) back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return Null, fmt.Errorf("unknown literal kind %q", name)
}

// MarshalYAML renders the kind by name.
func (k Kind) MarshalYAML() (any, error) { return k.String(), nil }

// UnmarshalYAML reads a kind name.
func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ErrMalformed is matched (errors.Is) by every MalformedError.
var ErrMalformed = errors.New("malformed literal")

// MalformedError reports a token that looks numeric but cannot be fully
// consumed by the numeric grammar.
type MalformedError struct {
	Token  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed literal %q: %s", e.Token, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

var (
	intRe         = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatRe       = regexp.MustCompile(`^[+-]?([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?$`)
	pctRe         = regexp.MustCompile(`^([+-]?([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?)pct$`)
	numericLeadRe = regexp.MustCompile(`^[+-]?\.?[0-9]`)
	placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(:[^{}]*)?\}`)
)

// Parse classifies a bare (unquoted) token.
//
// On a MalformedError the returned value is still usable: it is the token
// as a String, so callers collecting diagnostics can keep going.
func Parse(token string) (TypedValue, error) {
	t := strings.TrimSpace(token)

	switch t {
	case "", "~", "null", "Null", "NULL":
		return NullValue(), nil
	case "true", "True", "TRUE":
		return NewBool(true), nil
	case "false", "False", "FALSE":
		return NewBool(false), nil
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return NewFloat(math.Inf(1)), nil
	case "-.inf", "-.Inf", "-.INF":
		return NewFloat(math.Inf(-1)), nil
	case ".nan", ".NaN", ".NAN":
		return NewFloat(math.NaN()), nil
	}

	if placeholderRe.MatchString(t) {
		return NewPath(t), nil
	}

	if m := pctRe.FindStringSubmatch(t); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return NewString(t), &MalformedError{Token: t, Reason: err.Error()}
		}
		return NewPercentage(f / 100.0), nil
	}

	if intRe.MatchString(t) {
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return NewString(t), &MalformedError{Token: t, Reason: "integer out of range"}
		}
		return NewInteger(i), nil
	}

	if floatRe.MatchString(t) {
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return NewString(t), &MalformedError{Token: t, Reason: "float out of range"}
		}
		return NewFloat(f), nil
	}

	if numericLeadRe.MatchString(t) {
		return NewString(t), &MalformedError{Token: t, Reason: "trailing characters after number"}
	}

	if strings.Contains(t, "/") {
		return NewPath(t), nil
	}
	return NewString(t), nil
}

// ParseQuoted classifies a quoted token. Quoting opts out of the numeric
// and boolean grammars, so the result is always a String or a Path.
func ParseQuoted(token string) TypedValue {
	if placeholderRe.MatchString(token) || strings.Contains(token, "/") {
		return NewPath(token)
	}
	return NewString(token)
}

// MustParse is Parse for tokens known to be well formed, such as
// built-in defaults. It panics on a malformed token.
func MustParse(token string) TypedValue {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

// Placeholders returns the placeholder names embedded in a path template,
// in order of appearance. "ckpt_{epoch:02d}_{val_dice:.5f}" yields
// [epoch val_dice].
func Placeholders(template string) []string {
	matches := placeholderRe.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
