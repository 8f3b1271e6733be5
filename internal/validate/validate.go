// Package validate checks resolved task configurations against the
// document-wide invariants and reports every violation found. It never
// modifies what it checks.
package validate

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"hpresolve/internal/diag"
	"hpresolve/internal/hparams"
	"hpresolve/internal/literal"
)

var structs = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Tasks checks the task list: names and files pair up one to one and
// names are non-empty and distinct.
func Tasks(list hparams.TaskList) diag.List {
	var errs diag.List
	if list.Len() < 0 {
		errs.Add(diag.New(diag.TaskCountMismatch,
			"%d task names but %d hparam files", len(list.Names), len(list.Files)).At("tasks"))
	}
	seen := map[string]int{}
	for i, name := range list.Names {
		path := fmt.Sprintf("tasks.task_names[%d]", i)
		if name == "" {
			errs.Add(diag.New(diag.MissingRequiredField, "task name is empty").At(path))
			continue
		}
		if first, dup := seen[name]; dup {
			errs.Add(diag.New(diag.DuplicateTaskName,
				"task %q declared at positions %d and %d", name, first, i).At(path))
			continue
		}
		seen[name] = i
	}
	return errs
}

// Task checks one resolved task.
func Task(t *hparams.TaskConfig) diag.List {
	var errs diag.List
	errs.Add(structRules(t.Build, "build")...)
	errs.Add(structRules(t.Fit, "fit")...)
	errs.Add(nicknames(t.Fit.Callbacks)...)
	errs.Add(augmenters(t.Fit.Augmenters)...)

	if err := wellTyped(map[string]any(t.Fit.OptimizerKwargs), "fit.optimizer_kwargs"); err != nil {
		errs.Add(*err)
	}
	if v := t.Fit.BGValue; v.Kind == literal.Percentage && (v.Float < 0 || v.Float > 1) {
		errs.Add(diag.New(diag.OutOfRangeValue,
			"bg_value %s is outside [0pct, 100pct]", v.String()).At("fit.bg_value"))
	}
	return errs.ForTask(t.Name)
}

func structRules(s any, section string) diag.List {
	err := structs.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return diag.List{diag.New(diag.TypeMismatch, "%v", err).At(section)}
	}

	var errs diag.List
	for _, fe := range fieldErrs {
		errs.Add(fieldViolation(fe, section))
	}
	return errs
}

func fieldViolation(fe validator.FieldError, section string) diag.Violation {
	path := section
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		path = section + "." + rest
	}

	switch fe.Tag() {
	case "required":
		return diag.New(diag.MissingRequiredField, "%s is required", fe.Field()).At(path)
	case "oneof":
		return diag.New(diag.InvalidEnumValue,
			"%s %q is not one of %s", fe.Field(), fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", ")).At(path)
	case "gt", "gte", "lt", "lte", "min", "max":
		return diag.New(diag.OutOfRangeValue,
			"%s = %v must be %s %s", fe.Field(), fe.Value(), comparison(fe.Tag()), fe.Param()).At(path)
	}
	return diag.New(diag.TypeMismatch, "%s fails %q", fe.Field(), fe.Tag()).At(path)
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return ">"
	case "gte", "min":
		return ">="
	case "lt":
		return "<"
	}
	return "<="
}

func nicknames(cbs []hparams.CallbackSpec) diag.List {
	var errs diag.List
	first := map[string]int{}
	for i, cb := range cbs {
		j, dup := first[cb.Nickname]
		if !dup {
			first[cb.Nickname] = i
			continue
		}
		v := diag.New(diag.DuplicateNickname,
			"callbacks[%d] and callbacks[%d] share nickname %q", j, i, cb.Nickname)
		if cb.AnchorID != uuid.Nil && cbs[j].AnchorID == cb.AnchorID {
			v = diag.New(diag.DuplicateNickname,
				"anchor &%s is used by callbacks[%d] and callbacks[%d] without a nickname override; both register as %q",
				cb.AnchorName, j, i, cb.Nickname).FromAnchor(cb.AnchorName)
		}
		errs.Add(v.At(fmt.Sprintf("fit.callbacks[%d].nickname", i)).In(cb.Source))
	}
	return errs
}

func augmenters(augs []hparams.AugmenterSpec) diag.List {
	var errs diag.List
	for i, a := range augs {
		path := fmt.Sprintf("fit.augmenters[%d].kwargs", i)
		if v := wellTyped(map[string]any(a.Kwargs), path); v != nil {
			errs.Add(*v)
		}
	}
	return errs
}

// wellTyped reports the first kwargs value that is not built from typed
// literals, sequences and mappings.
func wellTyped(v any, path string) *diag.Violation {
	switch t := v.(type) {
	case nil:
		return nil
	case literal.TypedValue:
		if !t.Kind.Valid() {
			bad := diag.New(diag.TypeMismatch, "value has no valid literal kind (%v)", t.Kind).At(path)
			return &bad
		}
		return nil
	case []any:
		for i, item := range t {
			if bad := wellTyped(item, fmt.Sprintf("%s[%d]", path, i)); bad != nil {
				return bad
			}
		}
		return nil
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(t)) {
			if bad := wellTyped(t[k], path+"."+k); bad != nil {
				return bad
			}
		}
		return nil
	}
	bad := diag.New(diag.TypeMismatch, "unsupported value of type %T", v).At(path)
	return &bad
}
