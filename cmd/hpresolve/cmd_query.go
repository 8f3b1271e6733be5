package main

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"hpresolve/internal/hparams"
)

var queryFlags struct {
	raw     bool
	compact bool
}

var queryCmd = &cobra.Command{
	Use:   "query <document> <jq-filter>",
	Short: "Run a jq filter over the resolved configuration",
	Example: `  hpresolve query train.yaml '.tasks[] | {name, batch: .fit.batch_size}'
  hpresolve query -r train.yaml '.tasks[].instantiate[].nickname'`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.BoolVarP(&queryFlags.raw, "raw-output", "r", false, "Print strings without JSON quoting")
	f.BoolVarP(&queryFlags.compact, "compact-output", "c", false, "One result per line")
}

func runQuery(cmd *cobra.Command, args []string) error {
	query, err := gojq.Parse(args[1])
	if err != nil {
		return fmt.Errorf("jq: filter parse error: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("jq: compile error: %w", err)
	}

	cfg, err := resolveOrReport(cmd.Context(), cmd.ErrOrStderr(), args[0], nil)
	if err != nil {
		return err
	}
	input, err := hparams.Render(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	iter := code.RunWithContext(cmd.Context(), input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq: execution error: %w", err)
		}
		if s, ok := v.(string); ok && queryFlags.raw {
			fmt.Fprintln(out, s)
			continue
		}
		var data []byte
		if queryFlags.compact {
			data, err = json.Marshal(v)
		} else {
			data, err = json.MarshalIndent(v, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("jq: encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	}
}
