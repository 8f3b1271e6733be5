package callback

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type contractFile struct {
	Contracts []Contract `yaml:"contracts"`
}

// LoadContracts reads additional contracts from a YAML file and registers
// them in r:
//
//	contracts:
//	  - class_name: SavePredictionImages
//	    accepts_logger: true
//	    params:
//	      - {name: out_dir, kinds: [String, Path], required: true}
//
// It returns the number of contracts added. A class already in r is an
// error, so a file cannot silently replace a built-in contract.
func LoadContracts(fsys afero.Fs, path string, r *Registry) (int, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return 0, fmt.Errorf("read contracts: %w", err)
	}
	var file contractFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("parse contracts %s: %w", path, err)
	}
	for i, c := range file.Contracts {
		if err := r.Register(c); err != nil {
			return i, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(file.Contracts), nil
}
