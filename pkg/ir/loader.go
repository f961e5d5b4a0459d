package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks the decoder for a file by its extension. Unknown extensions are read as YAML,
// which also accepts JSON documents.
func FormatOf(path string) Format {
	switch filepath.Ext(path) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

func ReadFile(fs afero.Fs, path string) (*Graph, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read IR file %s: %w", path, err)
	}
	g, err := Parse(content, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("could not parse IR file %s: %w", path, err)
	}
	return g, nil
}

func Parse(content []byte, format Format) (*Graph, error) {
	var g Graph
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(bytes.NewReader(content)).Decode(&g)

	case FormatTOML:
		err = toml.NewDecoder(bytes.NewReader(content)).Decode(&g)

	case FormatYAML, "":
		err = yaml.Unmarshal(content, &g)

	default:
		return nil, fmt.Errorf("unsupported IR format %q", format)
	}
	if err != nil {
		zap.S().Debugf("Error unmarshalling IR: %s", err)
		return nil, err
	}
	return &g, nil
}
