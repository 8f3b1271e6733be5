// Package resolve runs the whole pipeline: read and anchor-resolve the
// global document, load and merge every task, assemble callbacks and
// validate. It returns either a fully valid configuration or the complete
// list of violations, never both.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"hpresolve/internal/callback"
	"hpresolve/internal/diag"
	"hpresolve/internal/document"
	"hpresolve/internal/hparams"
	"hpresolve/internal/logging"
	"hpresolve/internal/validate"
)

// Options configure a resolution run. The zero value reads from the OS
// filesystem with the built-in callback contracts.
type Options struct {
	Fs       afero.Fs
	Registry *callback.Registry
	Policy   hparams.SequencePolicy
	Workers  int
	// ImplicitTask names the single task of a document without a tasks
	// section. Empty means such a document is invalid.
	ImplicitTask string
	// Overrides are section.field=token assignments applied to the global
	// document before merging, replacing existing values.
	Overrides []string
	Logger    *slog.Logger
}

func (o *Options) defaults() {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Registry == nil {
		o.Registry = callback.Builtin()
	}
	if o.Logger == nil {
		o.Logger = logging.New("resolve")
	}
}

// Resolve reads the document at path and resolves every task. Operational
// failures (unreadable document, bad override syntax) are plain errors;
// configuration faults come back as a diag.List.
func Resolve(ctx context.Context, path string, opts Options) (*hparams.ResolvedConfig, error) {
	opts.defaults()

	global, err := document.ReadFile(opts.Fs, path)
	if err != nil {
		return nil, err
	}
	return ResolveDocument(ctx, global, opts)
}

// ResolveDocument is Resolve for an already parsed global document. Task
// files are still read through opts.Fs, relative to the document's path.
// Overrides are applied to global.
func ResolveDocument(ctx context.Context, global *document.Document, opts Options) (*hparams.ResolvedConfig, error) {
	opts.defaults()
	logger := opts.Logger

	for _, o := range opts.Overrides {
		key, token, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: want section.field=value", o)
		}
		if _, err := global.SetPath(strings.TrimSpace(key), strings.TrimSpace(token), true); err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
	}

	errs := append(diag.List(nil), global.Violations...)

	var list hparams.TaskList
	if tasks, ok := global.Section("tasks"); ok {
		var terrs diag.List
		list, terrs = hparams.ReadTaskList(tasks)
		errs.Add(terrs...)
	} else if opts.ImplicitTask != "" {
		list = hparams.SingleTask(opts.ImplicitTask)
	} else {
		errs.Add(diag.New(diag.MissingRequiredField, "document has no tasks section").At("tasks").In(global.Path))
	}

	sections := true
	for _, section := range []string{"build", "fit"} {
		if n, ok := global.Section(section); !ok || n.Kind != document.MappingNode {
			errs.Add(diag.New(diag.MissingRequiredField, "global %s section is required", section).At(section).In(global.Path))
			sections = false
		}
	}

	terrs := validate.Tasks(list)
	errs.Add(terrs...)
	if len(list.Names) == 0 && len(errs) == 0 {
		errs.Add(diag.New(diag.MissingRequiredField, "no tasks declared").At("tasks.task_names").In(global.Path))
	}
	if !sections || terrs.Has(diag.TaskCountMismatch) || len(list.Names) == 0 {
		return finish(logger, global.Path, nil, errs)
	}

	loader := &hparams.Loader{
		Fs:        opts.Fs,
		Policy:    opts.Policy,
		Workers:   opts.Workers,
		Callbacks: callback.NewAssembler(opts.Registry),
		Logger:    logging.New("loader"),
	}
	tasks, lerrs := loader.Load(ctx, global, list)
	errs.Add(lerrs...)

	// A field that failed to decode already has a violation; its zero value
	// would only add a second one.
	reported := map[string]bool{}
	for _, v := range lerrs {
		reported[v.Task+"\x00"+v.Path] = true
	}
	cfg := &hparams.ResolvedConfig{Tasks: tasks}
	for i := range cfg.Tasks {
		for _, v := range validate.Task(&cfg.Tasks[i]) {
			if !reported[v.Task+"\x00"+v.Path] {
				errs.Add(v)
			}
		}
	}
	return finish(logger, global.Path, cfg, errs)
}

func finish(logger *slog.Logger, path string, cfg *hparams.ResolvedConfig, errs diag.List) (*hparams.ResolvedConfig, error) {
	if len(errs) > 0 {
		// Tasks sharing a name report the same problems under one name.
		errs = errs.Unique()
		logger.Info("resolution failed", "document", path, "violations", len(errs))
		return nil, errs
	}
	logger.Info("resolution complete", "document", path, "tasks", len(cfg.Tasks))
	return cfg, nil
}

// Violations extracts the violation list from a Resolve error. ok is false
// for operational errors.
func Violations(err error) (diag.List, bool) {
	var l diag.List
	if errors.As(err, &l) {
		return l, true
	}
	return nil, false
}
