// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and logs. Keep raw codes for JSON
// fields, map keys, and equality comparisons.
package display

import (
	"strings"

	"hpresolve/internal/diag"
	"hpresolve/internal/literal"
)

// --- Violation Kinds ---

var violations = map[diag.Kind]string{
	diag.MalformedLiteral:     "Malformed Literal",
	diag.MalformedDocument:    "Malformed Document",
	diag.UnresolvedAnchor:     "Unresolved Anchor",
	diag.DuplicateAnchor:      "Duplicate Anchor",
	diag.TaskFileNotFound:     "Task File Not Found",
	diag.TaskCountMismatch:    "Task Count Mismatch",
	diag.DuplicateTaskName:    "Duplicate Task Name",
	diag.UnknownCallbackClass: "Unknown Callback Class",
	diag.UnexpectedKwarg:      "Unexpected Keyword Argument",
	diag.MissingRequiredKwarg: "Missing Keyword Argument",
	diag.MissingRequiredField: "Missing Field",
	diag.DuplicateNickname:    "Duplicate Nickname",
	diag.InvalidEnumValue:     "Invalid Choice",
	diag.OutOfRangeValue:      "Out Of Range",
	diag.TypeMismatch:         "Type Mismatch",
}

// Stage groups violation kinds by the resolution step that reports them.
type Stage int

const (
	StageParse Stage = iota
	StageLoad
	StageAssemble
	StageValidate
)

var stageNames = [...]string{"Parse", "Load", "Assemble", "Validate"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

var kindStage = map[diag.Kind]Stage{
	diag.MalformedLiteral:     StageParse,
	diag.MalformedDocument:    StageParse,
	diag.UnresolvedAnchor:     StageParse,
	diag.DuplicateAnchor:      StageParse,
	diag.TaskFileNotFound:     StageLoad,
	diag.TaskCountMismatch:    StageLoad,
	diag.UnknownCallbackClass: StageAssemble,
	diag.UnexpectedKwarg:      StageAssemble,
	diag.MissingRequiredKwarg: StageAssemble,
}

// Violation returns the human-readable name for a violation kind.
// Unknown kinds are returned as-is.
func Violation(k diag.Kind) string {
	if name, ok := violations[k]; ok {
		return name
	}
	return string(k)
}

// ViolationWithCode returns "Unresolved Anchor (UnresolvedAnchor)" format.
func ViolationWithCode(k diag.Kind) string {
	if name, ok := violations[k]; ok {
		return name + " (" + string(k) + ")"
	}
	return string(k)
}

// StageOf reports which step raises k. Kinds not listed come from
// validation.
func StageOf(k diag.Kind) Stage {
	if s, ok := kindStage[k]; ok {
		return s
	}
	return StageValidate
}

// --- Literal Kinds ---

var literals = map[literal.Kind]string{
	literal.Null:       "null",
	literal.Integer:    "integer",
	literal.Float:      "float",
	literal.Boolean:    "boolean",
	literal.String:     "string",
	literal.Percentage: "percentage",
	literal.Path:       "path",
}

// Literal returns the lower-case word for a literal kind.
func Literal(k literal.Kind) string {
	if name, ok := literals[k]; ok {
		return name
	}
	return k.String()
}

// LiteralKinds joins kind words with " or ". Empty means any value.
// [Integer, Float] -> "integer or float".
func LiteralKinds(kinds []literal.Kind) string {
	if len(kinds) == 0 {
		return "any"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = Literal(k)
	}
	return strings.Join(names, " or ")
}

// --- Locations ---

// Location renders where a violation points: "spleen: fit.callbacks[2]".
// Empty parts are dropped.
func Location(v diag.Violation) string {
	var parts []string
	if v.Task != "" {
		parts = append(parts, v.Task)
	}
	if v.Path != "" {
		parts = append(parts, v.Path)
	}
	loc := strings.Join(parts, ": ")
	if v.Anchor != "" {
		if loc != "" {
			loc += " "
		}
		loc += "(&" + v.Anchor + ")"
	}
	return loc
}
