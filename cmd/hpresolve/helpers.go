package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"hpresolve/internal/diag"
	"hpresolve/internal/display"
	"hpresolve/internal/document"
	"hpresolve/internal/format"
	"hpresolve/internal/hparams"
	"hpresolve/internal/logging"
	"hpresolve/internal/resolve"
)

// errViolations is returned after the violations were already printed, so
// main only sets the exit status.
var errViolations = errors.New("configuration has violations")

var (
	failMark = color.New(color.FgRed, color.Bold)
	passMark = color.New(color.FgGreen, color.Bold)
	kindText = color.New(color.FgYellow)
	dimText  = color.New(color.FgHiBlack)
)

func resolveOptions(overrides []string) resolve.Options {
	return resolve.Options{
		Fs:           fsys,
		Registry:     registry,
		Policy:       appSettings.Policy(),
		Workers:      appSettings.Workers,
		ImplicitTask: appSettings.ImplicitTask,
		Overrides:    overrides,
		Logger:       logging.New("resolve"),
	}
}

// resolvePath reads and resolves path. On violations it also returns the
// anchors of the document that were found invalid.
func resolvePath(ctx context.Context, path string, overrides []string) (*hparams.ResolvedConfig, []*document.Anchor, error) {
	doc, err := document.ReadFile(fsys, path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := resolve.ResolveDocument(ctx, doc, resolveOptions(overrides))
	if err != nil {
		return nil, document.IndexAnchors(doc).Flagged(), err
	}
	return cfg, nil, nil
}

// resolveOrReport resolves path. Violations are printed to w and replaced
// by errViolations.
func resolveOrReport(ctx context.Context, w io.Writer, path string, overrides []string) (*hparams.ResolvedConfig, error) {
	cfg, flagged, err := resolvePath(ctx, path, overrides)
	if err == nil {
		return cfg, nil
	}
	if l, ok := resolve.Violations(err); ok {
		report(w, path, l, flagged)
		return nil, errViolations
	}
	return nil, err
}

func report(w io.Writer, path string, l diag.List, flagged []*document.Anchor) {
	fmt.Fprintf(w, "%s %s: %d violation(s)\n", failMark.Sprint("✗"), path, len(l))
	for _, v := range l {
		fmt.Fprintf(w, "  %s %s\n", kindText.Sprint(display.Violation(v.Kind)), display.Location(v))
		fmt.Fprintf(w, "    %s\n", v.Message)
		if v.Source != "" {
			fmt.Fprintf(w, "    %s\n", dimText.Sprint(v.Source))
		}
	}
	reportAnchors(w, flagged)
}

// reportTable is report with the violations laid out as a table.
func reportTable(w io.Writer, path string, l diag.List, flagged []*document.Anchor, m format.Mode) {
	fmt.Fprintf(w, "%s %s: %d violation(s)\n", failMark.Sprint("✗"), path, len(l))
	fmt.Fprintln(w, format.Violations(l, m))
	reportAnchors(w, flagged)
}

// reportAnchors lists shared blocks that are invalid at every alias site.
func reportAnchors(w io.Writer, flagged []*document.Anchor) {
	for _, a := range flagged {
		problems := a.Problems()
		fmt.Fprintf(w, "  %s &%s invalid: %d problem(s), used at %d alias site(s)\n",
			kindText.Sprint("Anchor"), a.Name, len(problems), a.Uses)
		for _, p := range problems {
			fmt.Fprintf(w, "    %s: %s\n", display.ViolationWithCode(p.Kind), p.Message)
		}
		fmt.Fprintf(w, "    %s\n", dimText.Sprint(a.Source))
	}
}

func reportOK(w io.Writer, path string, cfg *hparams.ResolvedConfig) {
	fmt.Fprintf(w, "%s %s: %d task(s) resolved\n", passMark.Sprint("✓"), path, len(cfg.Tasks))
}
