package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"hpresolve/internal/hparams"
)

var resolveFlags struct {
	set    []string
	output string
	format string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <document>",
	Short: "Resolve every task of a document and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringArrayVar(&resolveFlags.set, "set", nil, "Override a global value before merging (section.field=value, repeatable)")
	f.StringVarP(&resolveFlags.output, "output", "o", "", "Write the result to this file instead of stdout")
	f.StringVar(&resolveFlags.format, "format", "yaml", "Output format: yaml or json")
}

func runResolve(cmd *cobra.Command, args []string) error {
	var marshal func(*hparams.ResolvedConfig) ([]byte, error)
	switch resolveFlags.format {
	case "yaml":
		marshal = hparams.Marshal
	case "json":
		marshal = hparams.MarshalJSON
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", resolveFlags.format)
	}

	cfg, err := resolveOrReport(cmd.Context(), cmd.ErrOrStderr(), args[0], resolveFlags.set)
	if err != nil {
		return err
	}

	if resolveFlags.output != "" && resolveFlags.format == "yaml" {
		if err := hparams.Write(fsys, resolveFlags.output, cfg); err != nil {
			return err
		}
		reportOK(cmd.ErrOrStderr(), args[0], cfg)
		return nil
	}

	data, err := marshal(cfg)
	if err != nil {
		return err
	}
	if resolveFlags.output != "" {
		if err := afero.WriteFile(fsys, resolveFlags.output, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", resolveFlags.output, err)
		}
		reportOK(cmd.ErrOrStderr(), args[0], cfg)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
