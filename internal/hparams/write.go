package hparams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"hpresolve/internal/literal"
)

// Marshal renders cfg as YAML. Percentages keep their pct form and path
// templates are written verbatim.
func Marshal(cfg *ResolvedConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode resolved config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode resolved config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores the resolved configuration as a YAML artifact.
func Write(fsys afero.Fs, path string, cfg *ResolvedConfig) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Render converts v (a ResolvedConfig, TaskConfig or spec) into plain
// maps, slices and scalars keyed by document field names, the shape jq
// filters and JSON output expect.
func Render(v any) (any, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return finite(out), nil
}

// finite replaces infinities and NaN, which JSON cannot carry, with their
// YAML tokens the way literal.TypedValue.MarshalJSON does.
func finite(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = finite(e)
		}
	case []any:
		for i, e := range x {
			x[i] = finite(e)
		}
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return literal.NewFloat(x).String()
		}
	}
	return v
}

// MarshalJSON renders cfg as indented JSON.
func MarshalJSON(cfg *ResolvedConfig) ([]byte, error) {
	plain, err := Render(cfg)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(plain, "", "  ")
}

func renderMap(v any) (map[string]any, error) {
	plain, err := Render(v)
	if err != nil {
		return nil, err
	}
	m, ok := plain.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("render: expected a mapping, got %T", plain)
	}
	return m, nil
}
