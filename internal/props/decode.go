package props

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of a props document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format by file extension; JSON by default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads a props document.
func Decode(r io.Reader, format Format) (*VideoProps, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read props: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes props from bytes.
func Parse(data []byte, format Format) (*VideoProps, error) {
	var p VideoProps
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse props yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("parse props json: %w", err)
		}
	}
	return &p, nil
}

// Load reads props from a file.
func Load(path string) (*VideoProps, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}
