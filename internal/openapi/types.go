// Package openapi builds and serializes OpenAPI 3.0 documents from inferred
// endpoint templates.
package openapi

// Document is an OpenAPI 3.0 document. Only the mechanically-derivable parts
// are populated; summaries, descriptions, and security requirements carry
// placeholders for manual completion.
type Document struct {
	OpenAPI    string               `yaml:"openapi" json:"openapi"`
	Info       Info                 `yaml:"info" json:"info"`
	Servers    []Server             `yaml:"servers,omitempty" json:"servers,omitempty"`
	Paths      map[string]PathItem  `yaml:"paths" json:"paths"`
	Components *Components          `yaml:"components,omitempty" json:"components,omitempty"`
}

// Info is the document metadata block.
type Info struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string `yaml:"version" json:"version"`
}

// Server describes one API server.
type Server struct {
	URL         string `yaml:"url" json:"url"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// PathItem maps lowercase HTTP methods to operations.
type PathItem map[string]*Operation

// Operation describes one method on one path.
type Operation struct {
	Summary     string               `yaml:"summary,omitempty" json:"summary,omitempty"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	OperationID string               `yaml:"operationId,omitempty" json:"operationId,omitempty"`
	Parameters  []*Parameter         `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	RequestBody *RequestBody         `yaml:"requestBody,omitempty" json:"requestBody,omitempty"`
	Responses   map[string]*Response `yaml:"responses" json:"responses"`
}

// Parameter describes one path, query, or header parameter.
type Parameter struct {
	Name        string      `yaml:"name" json:"name"`
	In          string      `yaml:"in" json:"in"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool        `yaml:"required,omitempty" json:"required,omitempty"`
	Schema      *Schema     `yaml:"schema,omitempty" json:"schema,omitempty"`
	Example     interface{} `yaml:"example,omitempty" json:"example,omitempty"`
}

// RequestBody describes the request payload.
type RequestBody struct {
	Content  map[string]*MediaType `yaml:"content" json:"content"`
	Required bool                  `yaml:"required,omitempty" json:"required,omitempty"`
}

// Response describes one status code's response.
type Response struct {
	Description string                `yaml:"description" json:"description"`
	Content     map[string]*MediaType `yaml:"content,omitempty" json:"content,omitempty"`
}

// MediaType holds the schema and example for one content type.
type MediaType struct {
	Schema  *Schema     `yaml:"schema,omitempty" json:"schema,omitempty"`
	Example interface{} `yaml:"example,omitempty" json:"example,omitempty"`
}

// Schema is an OpenAPI schema object or a $ref to one.
type Schema struct {
	Ref        string             `yaml:"$ref,omitempty" json:"$ref,omitempty"`
	Type       string             `yaml:"type,omitempty" json:"type,omitempty"`
	Nullable   bool               `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	Properties map[string]*Schema `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required   []string           `yaml:"required,omitempty" json:"required,omitempty"`
	Items      *Schema            `yaml:"items,omitempty" json:"items,omitempty"`
	OneOf      []*Schema          `yaml:"oneOf,omitempty" json:"oneOf,omitempty"`
	Example    interface{}        `yaml:"example,omitempty" json:"example,omitempty"`
}

// Components holds hoisted schemas and detected security schemes.
type Components struct {
	Schemas         map[string]*Schema         `yaml:"schemas,omitempty" json:"schemas,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `yaml:"securitySchemes,omitempty" json:"securitySchemes,omitempty"`
}

// SecurityScheme describes one detected authentication mechanism.
type SecurityScheme struct {
	Type        string `yaml:"type" json:"type"`
	Scheme      string `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	In          string `yaml:"in,omitempty" json:"in,omitempty"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}
