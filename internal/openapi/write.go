package openapi

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/harspec/internal/errors"
)

// Format selects the serialization of an emitted document.
type Format string

// Supported output formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks a format from a file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Write serializes the document.
func Write(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
}

// WriteFile writes the document to a file, creating the directory if needed.
func WriteFile(path string, doc *Document, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO(path, "write_spec", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewIO(path, "write_spec", err)
	}
	defer file.Close()

	if err := Write(file, doc, format); err != nil {
		return errors.NewIO(path, "write_spec", err)
	}
	return nil
}
