package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hpresolve/internal/format"
)

var callbacksFlags struct {
	table string
}

var callbacksCmd = &cobra.Command{
	Use:   "callbacks",
	Short: "List the callback classes and the keyword arguments they accept",
	Args:  cobra.NoArgs,
	RunE:  runCallbacks,
}

func init() {
	callbacksCmd.Flags().StringVar(&callbacksFlags.table, "table", "ascii", "Table style: ascii, markdown or csv")
}

func runCallbacks(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(callbacksFlags.table)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), format.Contracts(registry.Contracts(), mode))
	return nil
}
