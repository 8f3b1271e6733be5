package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hpresolve/internal/format"
)

var showFlags struct {
	task  string
	table string
}

var showCmd = &cobra.Command{
	Use:   "show <document>",
	Short: "Summarize resolved tasks, or one task's callbacks, as a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	f := showCmd.Flags()
	f.StringVar(&showFlags.task, "task", "", "List the callbacks of this task")
	f.StringVar(&showFlags.table, "table", "ascii", "Table style: ascii, markdown or csv")
}

func runShow(cmd *cobra.Command, args []string) error {
	mode, err := format.ParseMode(showFlags.table)
	if err != nil {
		return err
	}
	cfg, err := resolveOrReport(cmd.Context(), cmd.ErrOrStderr(), args[0], nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showFlags.task == "" {
		fmt.Fprintln(out, format.Tasks(cfg, mode))
		return nil
	}
	t, ok := cfg.Task(showFlags.task)
	if !ok {
		return fmt.Errorf("no task %q (have %v)", showFlags.task, cfg.Names())
	}
	fmt.Fprintln(out, format.Callbacks(t, mode))
	return nil
}
