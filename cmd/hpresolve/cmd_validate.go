package main

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"hpresolve/internal/format"
	"hpresolve/internal/resolve"
)

var validateFlags struct {
	table string
}

var validateCmd = &cobra.Command{
	Use:   "validate <pattern>...",
	Short: "Resolve every matching document and report all violations",
	Long: "Each argument is a document path or a glob pattern; ** matches any number of\n" +
		"directories. The exit status is 1 when any document has a violation.",
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.table, "table", "", "Lay violations out as a table: ascii, markdown or csv")
}

func runValidate(cmd *cobra.Command, args []string) error {
	var mode format.Mode
	if validateFlags.table != "" {
		m, err := format.ParseMode(validateFlags.table)
		if err != nil {
			return err
		}
		mode = m
	}

	var docs []string
	for _, pattern := range args {
		matches, err := glob(pattern)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("no documents match %q", pattern)
		}
		docs = append(docs, matches...)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, doc := range docs {
		cfg, flagged, err := resolvePath(cmd.Context(), doc, nil)
		if err == nil {
			reportOK(out, doc, cfg)
			continue
		}
		l, ok := resolve.Violations(err)
		if !ok {
			return err
		}
		if validateFlags.table != "" {
			reportTable(out, doc, l, flagged, mode)
		} else {
			report(out, doc, l, flagged)
		}
		failed++
	}
	if failed > 0 {
		fmt.Fprintf(out, "%d of %d document(s) invalid\n", failed, len(docs))
		return errViolations
	}
	return nil
}

// glob expands pattern against fsys. The static prefix of the pattern
// becomes the root of the search so absolute patterns work on any Fs.
func glob(pattern string) ([]string, error) {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	var root fs.FS = afero.NewIOFS(fsys)
	if base != "." {
		root = afero.NewIOFS(afero.NewBasePathFs(fsys, filepath.FromSlash(base)))
	}
	matches, err := doublestar.Glob(root, rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	for i, m := range matches {
		if base != "." {
			m = path.Join(base, m)
		}
		matches[i] = filepath.FromSlash(m)
	}
	return matches, nil
}
