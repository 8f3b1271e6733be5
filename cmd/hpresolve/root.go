package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"hpresolve/internal/callback"
	"hpresolve/internal/logging"
	"hpresolve/internal/settings"
)

// version is set at build time via -ldflags.
var version = "dev"

// fsys is the filesystem every command reads and writes through.
var fsys afero.Fs = afero.NewOsFs()

var rootFlags struct {
	settingsFile string
	logLevel     string
	logFormat    string
	policy       string
	workers      int
	implicitTask string
	contracts    string
	color        bool
}

// Loaded once per invocation by the root pre-run hook.
var (
	appSettings *settings.Settings
	registry    *callback.Registry
)

var rootCmd = &cobra.Command{
	Use:   "hpresolve",
	Short: "Resolve hierarchical training hyperparameter documents",
	Long: "hpresolve merges a global hyperparameter document with per-task override files,\n" +
		"checks every callback against its contract and reports all violations at once.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.settingsFile, "settings", "", "Settings file (default "+settings.DefaultFile+" if present)")
	f.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&rootFlags.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	f.StringVar(&rootFlags.policy, "sequence-policy", "replace", "How task lists combine with global lists: replace, replace-nonempty, append")
	f.IntVar(&rootFlags.workers, "workers", 0, "Tasks loaded concurrently (0 = one per task)")
	f.StringVar(&rootFlags.implicitTask, "implicit-task", "", "Task name for documents without a tasks section")
	f.StringVar(&rootFlags.contracts, "contracts", "", "YAML file of additional callback contracts")
	f.BoolVar(&rootFlags.color, "color", true, "Colorize output")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(callbacksCmd)
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	s, err := settings.Load(fsys, rootFlags.settingsFile, cmd.Flags())
	if err != nil {
		return err
	}
	logging.Init(s.Level(), s.LogFormat, cmd.ErrOrStderr())
	if !s.Color {
		color.NoColor = true
	}

	reg := callback.Builtin()
	if s.ContractsFile != "" {
		n, err := callback.LoadContracts(fsys, s.ContractsFile, reg)
		if err != nil {
			return fmt.Errorf("load contracts: %w", err)
		}
		slog.Debug("contracts loaded", "file", s.ContractsFile, "count", n)
	}

	appSettings, registry = s, reg
	return nil
}
