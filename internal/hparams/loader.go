package hparams

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"hpresolve/internal/diag"
	"hpresolve/internal/document"
	"hpresolve/internal/logging"
)

// CallbackAssembler turns the callback descriptors of a merged fit section
// into instantiation requests. anchors indexes every anchor visible to the
// task, so problems can be flagged on shared blocks.
type CallbackAssembler interface {
	Assemble(fit *FitSpec, anchors document.AnchorIndex) ([]InstantiationRequest, diag.List)
}

// Loader builds TaskConfigs from a global document and per-task override
// files.
type Loader struct {
	Fs     afero.Fs
	Policy SequencePolicy
	// Workers bounds concurrent task loads; zero means one per task.
	Workers   int
	Callbacks CallbackAssembler
	Logger    *slog.Logger
}

type taskResult struct {
	cfg  TaskConfig
	errs diag.List
}

// Load resolves every task of list against global. Tasks are independent
// and load concurrently; results keep list order. All problems of all
// tasks are collected; the returned configs are only meaningful when the
// list is empty.
func (l *Loader) Load(ctx context.Context, global *document.Document, list TaskList) ([]TaskConfig, diag.List) {
	if list.Len() < 0 {
		return nil, diag.List{diag.New(diag.TaskCountMismatch,
			"%d task names but %d hparam files", len(list.Names), len(list.Files)).At("tasks")}
	}

	logger := l.Logger
	if logger == nil {
		logger = logging.New("loader")
	}
	workers := l.Workers
	if workers <= 0 {
		workers = max(len(list.Names), 1)
	}

	results := make([]taskResult, len(list.Names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range list.Names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.loadTask(global, list.Names[i], list.Files[i], i, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, diag.List{diag.New(diag.MalformedDocument, "loading interrupted: %v", err)}
	}

	configs := make([]TaskConfig, len(results))
	var errs diag.List
	for i, r := range results {
		configs[i] = r.cfg
		errs.Add(r.errs.ForTask(list.Names[i])...)
	}
	return configs, errs
}

func (l *Loader) loadTask(global *document.Document, name, file string, index int, logger *slog.Logger) taskResult {
	var errs diag.List
	var override *document.Document

	if file != "" {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(global.Path), file)
		}
		doc, err := document.ReadFile(l.Fs, path)
		switch {
		case err == nil:
			override = doc
			errs.Add(doc.Violations...)
		case isViolations(err):
			errs.Merge(err, diag.MalformedDocument)
		default:
			errs.Add(diag.New(diag.TaskFileNotFound, "cannot open %s: %v", path, err).
				At(fmt.Sprintf("tasks.hparam_files[%d]", index)))
		}
		logger.Debug("task override", "task", name, "file", path, "found", override != nil)
	}

	build, _ := global.Section("build")
	fit, _ := global.Section("fit")
	if override != nil {
		if ob, ok := override.Section("build"); ok && !ob.IsNull() {
			build = Merge(build, ob, l.Policy)
		}
		if of, ok := override.Section("fit"); ok && !of.IsNull() {
			fit = Merge(fit, of, l.Policy)
		}
	}

	cfg := TaskConfig{Name: name, Source: file}
	var derrs diag.List
	cfg.Build, derrs = DecodeBuild(build)
	errs.Add(derrs...)
	cfg.Fit, derrs = DecodeFit(fit)
	errs.Add(derrs...)

	if l.Callbacks != nil {
		reqs, cerrs := l.Callbacks.Assemble(&cfg.Fit, document.IndexAnchors(global, override))
		cfg.Callbacks = reqs
		errs.Add(cerrs...)
	}

	logger.Debug("task merged", "task", name, "callbacks", len(cfg.Fit.Callbacks), "violations", len(errs))
	return taskResult{cfg: cfg, errs: errs}
}

func isViolations(err error) bool {
	_, ok := diag.AsList(err)
	return ok
}
