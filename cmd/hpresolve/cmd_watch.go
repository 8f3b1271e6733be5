package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"hpresolve/internal/document"
	"hpresolve/internal/hparams"
	"hpresolve/internal/logging"
	"hpresolve/internal/resolve"
)

var watchFlags struct {
	debounce time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch <document>",
	Short: "Re-validate a document whenever it or one of its task files changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 200*time.Millisecond, "Quiet period before re-validating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newDocWatcher(args[0], watchFlags.debounce)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, cmd.OutOrStdout())
}

// docWatcher watches the directories holding a document and its task
// files. Directories are watched rather than files so editors that
// replace files on save are still seen.
type docWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	logger   *slog.Logger
}

func newDocWatcher(path string, debounce time.Duration) (*docWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &docWatcher{
		path:     path,
		debounce: debounce,
		watcher:  fw,
		dirs:     map[string]bool{},
		logger:   logging.New("watch"),
	}, nil
}

func (w *docWatcher) Close() error {
	return w.watcher.Close()
}

// Run validates once, then again after every relevant change, until ctx
// is done.
func (w *docWatcher) Run(ctx context.Context, out io.Writer) error {
	w.check(ctx, out)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			w.logger.Debug("change", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		case <-fire:
			fire = nil
			w.check(ctx, out)
		}
	}
}

func (w *docWatcher) check(ctx context.Context, out io.Writer) {
	fmt.Fprintf(out, "%s %s\n", dimText.Sprint(time.Now().Format(time.TimeOnly)), w.path)
	cfg, flagged, err := resolvePath(ctx, w.path, nil)
	switch l, isList := resolve.Violations(err); {
	case err == nil:
		reportOK(out, w.path, cfg)
	case isList:
		report(out, w.path, l, flagged)
	default:
		fmt.Fprintf(out, "%s %s: %v\n", failMark.Sprint("✗"), w.path, err)
	}
	if err := w.track(); err != nil {
		w.logger.Warn("cannot watch task files", "error", err)
	}
}

// track recomputes the watched file set from the document's task list.
func (w *docWatcher) track() error {
	files := map[string]bool{filepath.Clean(w.path): true}
	if doc, err := document.ReadFile(fsys, w.path); err == nil {
		if tasks, ok := doc.Section("tasks"); ok {
			list, _ := hparams.ReadTaskList(tasks)
			for _, f := range list.Files {
				if f == "" {
					continue
				}
				if !filepath.IsAbs(f) {
					f = filepath.Join(filepath.Dir(w.path), f)
				}
				files[filepath.Clean(f)] = true
			}
		}
	}
	w.files = files

	for f := range files {
		dir := filepath.Dir(f)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}
