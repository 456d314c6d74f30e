package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/PentesterFlow/harspec/internal/cluster"
	"github.com/PentesterFlow/harspec/internal/schema"
)

// Endpoint pairs a clustered template with its inferred body schemas.
type Endpoint struct {
	Template *cluster.Template
	Schemas  *cluster.TemplateSchemas
}

// Options controls document-level fields.
type Options struct {
	Title       string
	Description string
	Version     string
	Security    Security
}

const jsonContentType = "application/json"

// Build assembles an OpenAPI 3.0.3 document: one path item per template, one
// operation per method, inferred parameters, and request/response schemas
// hoisted into components/schemas under deterministic names.
func Build(endpoints []Endpoint, opts Options) *Document {
	if opts.Title == "" {
		opts.Title = "Discovered API"
	}
	if opts.Description == "" {
		opts.Description = "API specification inferred from HAR capture analysis. Review and complete summaries, descriptions, and security requirements before publishing."
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	doc := &Document{
		OpenAPI: "3.0.3",
		Info: Info{
			Title:       opts.Title,
			Description: opts.Description,
			Version:     opts.Version,
		},
		Paths: make(map[string]PathItem),
	}

	if server := primaryServer(endpoints); server != "" {
		doc.Servers = []Server{{
			URL:         server,
			Description: "Server observed in capture",
		}}
	}

	components := &Components{
		Schemas:         make(map[string]*Schema),
		SecuritySchemes: opts.Security.schemes(),
	}

	for _, ep := range endpoints {
		item, ok := doc.Paths[ep.Template.Path]
		if !ok {
			item = make(PathItem)
			doc.Paths[ep.Template.Path] = item
		}
		item[strings.ToLower(ep.Template.Method)] = buildOperation(ep, components)
	}

	if len(components.Schemas) > 0 || len(components.SecuritySchemes) > 0 {
		if len(components.Schemas) == 0 {
			components.Schemas = nil
		}
		doc.Components = components
	}
	return doc
}

// primaryServer returns the most frequently observed scheme://host, ties
// broken alphabetically for determinism.
func primaryServer(endpoints []Endpoint) string {
	counts := make(map[string]int)
	for _, ep := range endpoints {
		for _, ex := range ep.Template.Exchanges {
			if ex.Scheme != "" && ex.Host != "" {
				counts[ex.Scheme+"://"+ex.Host]++
			}
		}
	}
	best := ""
	for server, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && server < best) {
			best = server
		}
	}
	return best
}

func buildOperation(ep Endpoint, components *Components) *Operation {
	t := ep.Template
	op := &Operation{
		Summary:     fmt.Sprintf("%s %s", t.Method, t.Path),
		Description: fmt.Sprintf("Endpoint discovered from capture analysis (%d calls observed). TODO: replace with a human-written description.", len(t.Exchanges)),
		OperationID: operationID(t),
		Responses:   make(map[string]*Response),
	}

	for _, spec := range t.Parameters() {
		op.Parameters = append(op.Parameters, buildParameter(spec))
	}

	base := componentBase(t)

	if ep.Schemas != nil && ep.Schemas.Request != nil {
		s := hoist(ep.Schemas.Request, base+"Request", components)
		op.RequestBody = &RequestBody{
			Required: true,
			Content:  map[string]*MediaType{jsonContentType: {Schema: s}},
		}
	}

	for _, status := range observedStatuses(t) {
		resp := &Response{Description: statusDescription(status)}
		if ep.Schemas != nil {
			if node, ok := ep.Schemas.Responses[status]; ok {
				name := base + "Response"
				if status != primaryStatus(t) {
					name += strconv.Itoa(status)
				}
				resp.Content = map[string]*MediaType{
					jsonContentType: {Schema: hoist(node, name, components)},
				}
			}
		}
		op.Responses[strconv.Itoa(status)] = resp
	}
	if len(op.Responses) == 0 {
		op.Responses["default"] = &Response{Description: "Observed response"}
	}
	return op
}

func buildParameter(spec cluster.ParameterSpec) *Parameter {
	p := &Parameter{
		Name:     spec.Name,
		In:       string(spec.Location),
		Required: spec.Required,
		Schema:   &Schema{Type: spec.Type},
	}
	if spec.Example != "" {
		p.Example = spec.Example
	}
	return p
}

// observedStatuses lists the distinct response codes of a template, sorted.
func observedStatuses(t *cluster.Template) []int {
	set := make(map[int]struct{})
	for _, ex := range t.Exchanges {
		if ex.Status > 0 {
			set[ex.Status] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// primaryStatus is the lowest 2xx code, or the lowest code overall. Its
// hoisted schema keeps the unsuffixed component name.
func primaryStatus(t *cluster.Template) int {
	statuses := observedStatuses(t)
	for _, s := range statuses {
		if s >= 200 && s < 300 {
			return s
		}
	}
	if len(statuses) > 0 {
		return statuses[0]
	}
	return 200
}

func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Observed response"
}

// hoist converts a schema node and, when it describes an object, moves it to
// components/schemas and returns a $ref. Scalar and array schemas stay
// inline. Name collisions get a numeric suffix.
func hoist(node *schema.Node, name string, components *Components) *Schema {
	s := fromNode(node)
	if s.Type != "object" && len(s.OneOf) == 0 {
		return s
	}

	final := name
	for i := 2; ; i++ {
		if _, taken := components.Schemas[final]; !taken {
			break
		}
		final = name + strconv.Itoa(i)
	}
	components.Schemas[final] = s
	return &Schema{Ref: "#/components/schemas/" + final}
}

// fromNode converts an inferred schema node into an OpenAPI schema. Type
// conflicts become oneOf unions; an observed null becomes nullable.
func fromNode(node *schema.Node) *Schema {
	if node == nil {
		return &Schema{}
	}

	nullable := node.HasType(schema.TypeNull)
	var types []string
	for _, t := range node.Types() {
		if t != schema.TypeNull {
			types = append(types, t)
		}
	}

	switch len(types) {
	case 0:
		return &Schema{Nullable: nullable}
	case 1:
		s := typedSchema(node, types[0])
		s.Nullable = nullable
		return s
	default:
		union := &Schema{Nullable: nullable}
		for _, t := range types {
			union.OneOf = append(union.OneOf, typedSchema(node, t))
		}
		return union
	}
}

func typedSchema(node *schema.Node, typ string) *Schema {
	s := &Schema{Type: typ}
	switch typ {
	case schema.TypeObject:
		s.Properties = make(map[string]*Schema)
		for _, name := range node.FieldNames() {
			f, _ := node.Field(name)
			s.Properties[name] = fromNode(f)
		}
		s.Required = node.RequiredFields()
	case schema.TypeArray:
		if elem := node.Elem(); elem != nil {
			s.Items = fromNode(elem)
		} else {
			s.Items = &Schema{}
		}
	default:
		s.Example = exampleValue(node.Example())
	}
	return s
}

// exampleValue rewrites json.Number examples into native numbers so YAML
// output shows 5, not "5".
func exampleValue(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, ev := range n {
			out[k] = exampleValue(ev)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, ev := range n {
			out[i] = exampleValue(ev)
		}
		return out
	default:
		return v
	}
}

// componentBase derives the deterministic component name prefix from the
// template path and method, e.g. GET /items/{itemId} -> ItemsItemIdGet.
func componentBase(t *cluster.Template) string {
	var sb strings.Builder
	for _, seg := range t.Segments {
		word := seg.Literal
		if seg.Variable {
			word = seg.Param
		}
		sb.WriteString(pascal(word))
	}
	if sb.Len() == 0 {
		sb.WriteString("Root")
	}
	sb.WriteString(pascal(strings.ToLower(t.Method)))
	return sb.String()
}

func operationID(t *cluster.Template) string {
	base := componentBase(t)
	method := pascal(strings.ToLower(t.Method))
	path := strings.TrimSuffix(base, method)
	return strings.ToLower(t.Method) + path
}

// pascal upper-cases word starts and strips non-alphanumerics.
func pascal(word string) string {
	var sb strings.Builder
	upper := true
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
