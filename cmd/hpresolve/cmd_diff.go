package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"hpresolve/internal/hparams"
)

var diffCmd = &cobra.Command{
	Use:   "diff <document> <taskA> <taskB>",
	Short: "Show how two resolved tasks differ",
	Args:  cobra.ExactArgs(3),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := resolveOrReport(cmd.Context(), cmd.ErrOrStderr(), args[0], nil)
	if err != nil {
		return err
	}
	before, err := taskText(cfg, args[1])
	if err != nil {
		return err
	}
	after, err := taskText(cfg, args[2])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if before == after {
		fmt.Fprintf(out, "tasks %s and %s resolve identically\n", args[1], args[2])
		return nil
	}
	fmt.Fprintf(out, "--- %s\n+++ %s\n", args[1], args[2])
	add, del := writeLineDiff(out, before, after)
	fmt.Fprintf(out, "%d line(s) added, %d removed\n", add, del)
	return nil
}

// taskText renders a task without its name and source so only settings
// differ.
func taskText(cfg *hparams.ResolvedConfig, name string) (string, error) {
	t, ok := cfg.Task(name)
	if !ok {
		return "", fmt.Errorf("no task %q (have %v)", name, cfg.Names())
	}
	c := *t
	c.Name, c.Source = "", ""
	data, err := hparams.Marshal(&hparams.ResolvedConfig{Tasks: []hparams.TaskConfig{c}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeLineDiff(w io.Writer, before, after string) (additions, deletions int) {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	for _, d := range diffs {
		lines := strings.SplitAfter(d.Text, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				added.Fprintln(w, "+"+line)
				additions++
			case diffmatchpatch.DiffDelete:
				removed.Fprintln(w, "-"+line)
				deletions++
			default:
				fmt.Fprintln(w, " "+line)
			}
		}
	}
	return additions, deletions
}
