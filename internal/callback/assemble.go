package callback

import (
	"fmt"
	"log/slog"
	"sort"

	"hpresolve/internal/diag"
	"hpresolve/internal/document"
	"hpresolve/internal/hparams"
	"hpresolve/internal/literal"
	"hpresolve/internal/logging"
)

// loggerKwarg is supplied by the runtime for pass_logger callbacks and may
// not be written as a kwarg.
const loggerKwarg = "logger"

// Assembler checks callback descriptors against a Registry.
type Assembler struct {
	Registry *Registry
	Logger   *slog.Logger
}

// NewAssembler returns an Assembler over r.
func NewAssembler(r *Registry) *Assembler {
	return &Assembler{Registry: r, Logger: logging.New("callback")}
}

// Assemble checks every descriptor of fit.callbacks and emits one
// instantiation request per descriptor. Problems with a descriptor that is
// a plain alias of an anchor are also flagged on the anchor, so every other
// use of the same block sees them.
func (a *Assembler) Assemble(fit *hparams.FitSpec, anchors document.AnchorIndex) ([]hparams.InstantiationRequest, diag.List) {
	var errs diag.List
	reqs := make([]hparams.InstantiationRequest, 0, len(fit.Callbacks))

	for i, cb := range fit.Callbacks {
		path := fmt.Sprintf("fit.callbacks[%d]", i)
		found := a.check(cb, path)

		for _, v := range found {
			if cb.AnchorName != "" {
				v = v.FromAnchor(cb.AnchorName)
			}
			errs.Add(v)
			if anchor, ok := anchors[cb.AnchorID]; ok && !cb.Overlay {
				anchor.Flag(v.At(""))
			}
		}

		reqs = append(reqs, hparams.InstantiationRequest{
			Nickname:    cb.Nickname,
			ClassName:   cb.ClassName,
			Kwargs:      copyKwargs(cb.Kwargs),
			NeedsLogger: cb.PassLogger,
			StartFrom:   cb.StartFrom,
		})
	}

	if a.Logger != nil {
		a.Logger.Debug("callbacks assembled", "count", len(reqs), "violations", len(errs))
	}
	return reqs, errs
}

func (a *Assembler) check(cb hparams.CallbackSpec, path string) diag.List {
	var errs diag.List
	contract, ok := a.Registry.Lookup(cb.ClassName)
	if !ok {
		errs.Add(diag.New(diag.UnknownCallbackClass, "callback %q: unknown class %q", cb.Label(), cb.ClassName).
			At(path + ".class_name").In(cb.Source))
		return errs
	}

	keys := make([]string, 0, len(cb.Kwargs))
	for k := range cb.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		kpath := path + ".kwargs." + k
		if k == loggerKwarg {
			errs.Add(diag.New(diag.UnexpectedKwarg,
				"callback %q: %q is supplied by the runtime, set pass_logger instead", cb.Label(), k).At(kpath).In(cb.Source))
			continue
		}
		p, ok := contract.Param(k)
		if !ok {
			errs.Add(diag.New(diag.UnexpectedKwarg,
				"callback %q (%s) does not accept %q", cb.Label(), cb.ClassName, k).At(kpath).In(cb.Source))
			continue
		}
		if !p.Accepts(cb.Kwargs[k]) {
			errs.Add(diag.New(diag.TypeMismatch,
				"callback %q: %s expects %s, found %s", cb.Label(), k, p.KindNames(), describe(cb.Kwargs[k])).At(kpath).In(cb.Source))
		}
	}

	for _, name := range contract.Required() {
		if _, ok := cb.Kwargs[name]; !ok {
			errs.Add(diag.New(diag.MissingRequiredKwarg,
				"callback %q (%s) requires %q", cb.Label(), cb.ClassName, name).At(path + ".kwargs").In(cb.Source))
		}
	}

	if cb.PassLogger && !contract.AcceptsLogger {
		errs.Add(diag.New(diag.UnexpectedKwarg,
			"callback %q (%s) does not accept a logger", cb.Label(), cb.ClassName).At(path + ".pass_logger").In(cb.Source))
	}
	return errs
}

func describe(v any) string {
	switch t := v.(type) {
	case literal.TypedValue:
		return fmt.Sprintf("%s %q", t.Kind, t.String())
	case []any:
		return "a sequence"
	case map[string]any:
		return "a mapping"
	}
	return fmt.Sprintf("%v", v)
}

func copyKwargs(in hparams.Kwargs) hparams.Kwargs {
	if in == nil {
		return nil
	}
	out := make(hparams.Kwargs, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
