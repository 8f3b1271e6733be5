package document

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
)

// ReadFile reads and parses a document. The format is picked by extension:
// .json and .jsonc go through a comment-stripping pass, anything else is
// read as YAML.
func ReadFile(fsys afero.Fs, path string) (*Document, error) {
	data, err := readAll(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Load(path, data, filepath.Ext(path))
}

// Load parses a document from bytes. ext is the file extension used as a
// format hint; empty means YAML.
func Load(path string, data []byte, ext string) (*Document, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		// JSON is valid YAML once comments and trailing commas are gone.
		data = jsonc.ToJSON(data)
	}
	return Parse(path, data)
}

func readAll(fsys afero.Fs, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return io.ReadAll(f)
}
