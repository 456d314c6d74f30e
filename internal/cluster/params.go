package cluster

import (
	"strconv"
	"strings"

	"github.com/PentesterFlow/harspec/internal/capture"
)

// Location identifies where a parameter travels.
type Location string

// Parameter locations.
const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
)

// ParameterSpec describes one inferred parameter of an endpoint template.
// Required is true only when the parameter appears in every contributing
// exchange.
type ParameterSpec struct {
	Name     string
	Location Location
	Type     string
	Required bool
	Example  string
}

// standard request headers that carry transport concerns, not API parameters.
var ignoredHeaders = map[string]struct{}{
	"accept": {}, "accept-encoding": {}, "accept-language": {}, "authorization": {},
	"cache-control": {}, "connection": {}, "content-length": {}, "content-type": {},
	"cookie": {}, "host": {}, "origin": {}, "pragma": {}, "referer": {},
	"sec-ch-ua": {}, "sec-ch-ua-mobile": {}, "sec-ch-ua-platform": {},
	"sec-fetch-dest": {}, "sec-fetch-mode": {}, "sec-fetch-site": {},
	"user-agent": {}, "upgrade-insecure-requests": {},
}

// Parameters infers the path, query, and custom header parameters of the
// template from its contributing exchanges, in that order. Within a location
// parameters keep first-seen order.
func (t *Template) Parameters() []ParameterSpec {
	var specs []ParameterSpec
	specs = append(specs, t.pathParameters()...)
	specs = append(specs, t.collect(InQuery, func(ex *capture.Exchange) []capture.Param {
		return ex.Query
	})...)
	specs = append(specs, t.collect(InHeader, func(ex *capture.Exchange) []capture.Param {
		var custom []capture.Param
		for _, h := range ex.RequestHeaders {
			name := strings.ToLower(h.Name)
			if _, skip := ignoredHeaders[name]; skip {
				continue
			}
			if strings.HasPrefix(name, ":") { // HTTP/2 pseudo headers
				continue
			}
			if !strings.HasPrefix(name, "x-") {
				continue
			}
			custom = append(custom, h)
		}
		return custom
	})...)
	return specs
}

// pathParameters derives one required parameter per variable segment, typed
// from the observed values.
func (t *Template) pathParameters() []ParameterSpec {
	var specs []ParameterSpec
	for pos, seg := range t.Segments {
		if !seg.Variable {
			continue
		}
		var values []string
		for _, ex := range t.Exchanges {
			segments := ex.PathSegments()
			if pos < len(segments) {
				values = append(values, segments[pos])
			}
		}
		spec := ParameterSpec{
			Name:     seg.Param,
			Location: InPath,
			Type:     mergeValueTypes(values),
			Required: true, // path parameters are always required in OpenAPI
		}
		if len(values) > 0 {
			spec.Example = values[0]
		}
		specs = append(specs, spec)
	}
	return specs
}

// collect unions named values across exchanges; a name present in all of
// them is required, the rest are optional.
func (t *Template) collect(loc Location, extract func(*capture.Exchange) []capture.Param) []ParameterSpec {
	type seen struct {
		values []string
		count  int
	}
	byName := make(map[string]*seen)
	var order []string

	for _, ex := range t.Exchanges {
		present := make(map[string]bool)
		for _, p := range extract(ex) {
			s, ok := byName[p.Name]
			if !ok {
				s = &seen{}
				byName[p.Name] = s
				order = append(order, p.Name)
			}
			s.values = append(s.values, p.Value)
			if !present[p.Name] {
				s.count++
				present[p.Name] = true
			}
		}
	}

	specs := make([]ParameterSpec, 0, len(order))
	for _, name := range order {
		s := byName[name]
		spec := ParameterSpec{
			Name:     name,
			Location: loc,
			Type:     mergeValueTypes(s.values),
			Required: s.count == len(t.Exchanges),
		}
		if len(s.values) > 0 {
			spec.Example = s.values[0]
		}
		specs = append(specs, spec)
	}
	return specs
}

// mergeValueTypes infers a scalar type from string-encoded values. The merge
// follows the schema rules: integer only when every value is fraction-free,
// any non-numeric value makes the whole parameter a string.
func mergeValueTypes(values []string) string {
	if len(values) == 0 {
		return "string"
	}
	merged := ""
	for _, v := range values {
		t := valueType(v)
		switch {
		case merged == "" || merged == t:
			merged = t
		case (merged == "integer" && t == "number") || (merged == "number" && t == "integer"):
			merged = "number"
		default:
			return "string"
		}
	}
	return merged
}

func valueType(v string) string {
	switch v {
	case "true", "false":
		return "boolean"
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return "integer"
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return "number"
	}
	return "string"
}
