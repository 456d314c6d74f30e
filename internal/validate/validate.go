// Package validate performs structural validation of OpenAPI documents, so
// emitted specs round-trip through a validator without manual edits.
package validate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/harspec/internal/errors"
	"github.com/PentesterFlow/harspec/internal/openapi"
)

// Issue is one structural problem found in a document.
type Issue struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// Document validates an in-memory document, as a self-check after emission.
func Document(doc *openapi.Document) ([]Issue, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return validateJSON(data, "generated document")
}

// File validates an OpenAPI file, YAML or JSON.
func File(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO(path, "read_spec", err)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		var value interface{}
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, errors.NewValidation(path, "not valid YAML: "+err.Error())
		}
		data, err = json.Marshal(value)
		if err != nil {
			return nil, errors.NewValidation(path, "document does not convert to JSON: "+err.Error())
		}
	}

	return validateJSON(data, path)
}

func validateJSON(data []byte, source string) ([]Issue, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(structuralSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.NewValidation(source, "validator failed: "+err.Error())
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, Issue{
			Field:       re.Field(),
			Description: re.Description(),
		})
	}
	return issues, nil
}
