// Package settings loads the resolver tool's own configuration from
// defaults, an optional settings file, HPRESOLVE_ environment variables
// and command-line flags, in increasing order of priority.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hpresolve/internal/hparams"
	"hpresolve/internal/logging"
)

const (
	EnvPrefix = "HPRESOLVE"
	// DefaultFile is looked up in the working directory when no settings
	// file is given.
	DefaultFile = ".hpresolve.yaml"
)

// Settings configure a resolver run.
type Settings struct {
	LogLevel       string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string `mapstructure:"log_format" validate:"oneof=text json"`
	SequencePolicy string `mapstructure:"sequence_policy" validate:"oneof=replace replace-nonempty append"`
	Workers        int    `mapstructure:"workers" validate:"gte=0"`
	ImplicitTask   string `mapstructure:"implicit_task"`
	ContractsFile  string `mapstructure:"contracts_file"`
	Color          bool   `mapstructure:"color"`
}

// keys maps settings keys to the flag names that may override them.
var keys = map[string]string{
	"log_level":       "log-level",
	"log_format":      "log-format",
	"sequence_policy": "sequence-policy",
	"workers":         "workers",
	"implicit_task":   "implicit-task",
	"contracts_file":  "contracts",
	"color":           "color",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", logging.FormatText)
	v.SetDefault("sequence_policy", hparams.ReplaceSequences.String())
	v.SetDefault("workers", 0)
	v.SetDefault("implicit_task", "")
	v.SetDefault("contracts_file", "")
	v.SetDefault("color", true)
}

// Load builds Settings, reading settings files through fsys (nil means the
// OS filesystem). file names an explicit settings file, which must exist;
// empty means DefaultFile if present. flags may be nil; only flags the user
// changed take priority over the environment.
func Load(fsys afero.Fs, file string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	if fsys != nil {
		v.SetFs(fsys)
	}
	setDefaults(v)

	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", file, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read settings: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range keys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if f := v.ConfigFileUsed(); f != "" {
		slog.Debug("settings loaded", "file", f)
	}
	return &s, nil
}

// Validate checks field constraints.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, len(fieldErrs))
			for i, fe := range fieldErrs {
				msgs[i] = fmt.Sprintf("%s=%v fails %s %s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Level is LogLevel as a slog level.
func (s *Settings) Level() slog.Level {
	l, _ := logging.ParseLevel(s.LogLevel)
	return l
}

// Policy is SequencePolicy parsed.
func (s *Settings) Policy() hparams.SequencePolicy {
	p, _ := hparams.ParsePolicy(s.SequencePolicy)
	return p
}
