// Package diag defines the violations produced while resolving a
// hyperparameter document.
//
// Resolution never stops at the first problem. Each stage attaches its
// findings to the task, field and anchor they originate from and appends
// them to a List; the List is the error returned to the caller. Callers
// match kinds with errors.Is against the Err* sentinels, which works on a
// single Violation and on a whole List alike.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a violation.
type Kind string

const (
	MalformedLiteral     Kind = "MalformedLiteral"
	MalformedDocument    Kind = "MalformedDocument"
	UnresolvedAnchor     Kind = "UnresolvedAnchor"
	DuplicateAnchor      Kind = "DuplicateAnchor"
	TaskFileNotFound     Kind = "TaskFileNotFound"
	TaskCountMismatch    Kind = "TaskCountMismatch"
	DuplicateTaskName    Kind = "DuplicateTaskName"
	UnknownCallbackClass Kind = "UnknownCallbackClass"
	UnexpectedKwarg      Kind = "UnexpectedKwarg"
	MissingRequiredKwarg Kind = "MissingRequiredKwarg"
	MissingRequiredField Kind = "MissingRequiredField"
	DuplicateNickname    Kind = "DuplicateNickname"
	InvalidEnumValue     Kind = "InvalidEnumValue"
	OutOfRangeValue      Kind = "OutOfRangeValue"
	TypeMismatch         Kind = "TypeMismatch"
)

type kindError Kind

func (k kindError) Error() string { return string(k) }

// Sentinels for errors.Is.
var (
	ErrMalformedLiteral     error = kindError(MalformedLiteral)
	ErrMalformedDocument    error = kindError(MalformedDocument)
	ErrUnresolvedAnchor     error = kindError(UnresolvedAnchor)
	ErrDuplicateAnchor      error = kindError(DuplicateAnchor)
	ErrTaskFileNotFound     error = kindError(TaskFileNotFound)
	ErrTaskCountMismatch    error = kindError(TaskCountMismatch)
	ErrDuplicateTaskName    error = kindError(DuplicateTaskName)
	ErrUnknownCallbackClass error = kindError(UnknownCallbackClass)
	ErrUnexpectedKwarg      error = kindError(UnexpectedKwarg)
	ErrMissingRequiredKwarg error = kindError(MissingRequiredKwarg)
	ErrMissingRequiredField error = kindError(MissingRequiredField)
	ErrDuplicateNickname    error = kindError(DuplicateNickname)
	ErrInvalidEnumValue     error = kindError(InvalidEnumValue)
	ErrOutOfRangeValue      error = kindError(OutOfRangeValue)
	ErrTypeMismatch         error = kindError(TypeMismatch)
)

// Violation is one configuration problem.
type Violation struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Task    string `json:"task,omitempty" yaml:"task,omitempty"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"` // file:line
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`     // e.g. fit.callbacks[2].kwargs
	Anchor  string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// New builds a violation with a formatted message.
func New(kind Kind, format string, args ...any) Violation {
	return Violation{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At returns a copy of v located at path.
func (v Violation) At(path string) Violation {
	v.Path = path
	return v
}

// In returns a copy of v attributed to source (file:line).
func (v Violation) In(source string) Violation {
	v.Source = source
	return v
}

// ForTask returns a copy of v attributed to task.
func (v Violation) ForTask(task string) Violation {
	v.Task = task
	return v
}

// FromAnchor returns a copy of v attributed to the shared anchor name.
func (v Violation) FromAnchor(name string) Violation {
	v.Anchor = name
	return v
}

func (v Violation) Error() string {
	var b strings.Builder
	b.WriteString(string(v.Kind))
	if v.Task != "" {
		fmt.Fprintf(&b, " [task %s]", v.Task)
	}
	if v.Path != "" {
		fmt.Fprintf(&b, " %s", v.Path)
	}
	if v.Source != "" {
		fmt.Fprintf(&b, " (%s)", v.Source)
	}
	if v.Anchor != "" {
		fmt.Fprintf(&b, " via &%s", v.Anchor)
	}
	b.WriteString(": ")
	b.WriteString(v.Message)
	return b.String()
}

// Is matches the Err* sentinel of v's kind.
func (v Violation) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && Kind(k) == v.Kind
}

// List is an ordered collection of violations. A non-empty List is the
// error value of a failed resolution.
type List []Violation

// Add appends violations.
func (l *List) Add(vs ...Violation) {
	*l = append(*l, vs...)
}

// Merge appends every violation carried by err. A List or Violation is
// unpacked; any other error becomes a violation of the fallback kind.
func (l *List) Merge(err error, fallback Kind) {
	if err == nil {
		return
	}
	var list List
	if errors.As(err, &list) {
		l.Add(list...)
		return
	}
	var v Violation
	if errors.As(err, &v) {
		l.Add(v)
		return
	}
	l.Add(Violation{Kind: fallback, Message: err.Error()})
}

// ForTask attributes every violation without a task to task.
func (l List) ForTask(task string) List {
	out := make(List, len(l))
	for i, v := range l {
		if v.Task == "" {
			v.Task = task
		}
		out[i] = v
	}
	return out
}

// Unique drops repeats of an identical violation, keeping first
// occurrences in order.
func (l List) Unique() List {
	seen := make(map[Violation]bool, len(l))
	out := l[:0:0]
	for _, v := range l {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether any violation is of kind.
func (l List) Has(kind Kind) bool {
	for _, v := range l {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// OfKind returns the violations of kind, in order.
func (l List) OfKind(kind Kind) List {
	var out List
	for _, v := range l {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// Err returns l as an error, or nil when it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	if len(l) == 1 {
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, v := range l {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("%d configuration violations:\n- %s", len(l), strings.Join(msgs, "\n- "))
}

// Unwrap exposes each violation to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, v := range l {
		errs[i] = v
	}
	return errs
}

// AsList extracts the violations carried by err.
func AsList(err error) (List, bool) {
	var l List
	if errors.As(err, &l) {
		return l, true
	}
	return nil, false
}
