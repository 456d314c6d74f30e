// Package schema infers and merges JSON body schemas from observed values.
package schema

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
)

// JSON type names as they appear in OpenAPI schemas.
const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Node is the inferred structural type of a JSON value: scalar, array, or
// object with named fields. Divergent shapes from multiple observations merge
// into a union/optional-field representation instead of discarding evidence.
type Node struct {
	types map[string]struct{}

	count    int // total observations of this node
	objCount int // observations that were objects

	fields map[string]*field
	elem   *Node // merged element schema when observed as array

	example    interface{} // first observed value, capture order
	exampleSet bool
}

type field struct {
	node  *Node
	count int // presence count among object observations
}

func newNode() *Node {
	return &Node{
		types:  make(map[string]struct{}),
		fields: make(map[string]*field),
	}
}

// Infer builds a schema node from one decoded JSON value. Numbers must be
// json.Number (see InferJSON) for the integer/number distinction to survive
// decoding.
func Infer(value interface{}) *Node {
	n := newNode()
	n.count = 1
	n.example = value
	n.exampleSet = true

	switch v := value.(type) {
	case nil:
		n.types[TypeNull] = struct{}{}
	case bool:
		n.types[TypeBoolean] = struct{}{}
	case string:
		n.types[TypeString] = struct{}{}
	case json.Number:
		n.types[numberType(v)] = struct{}{}
	case float64:
		if v == math.Trunc(v) {
			n.types[TypeInteger] = struct{}{}
		} else {
			n.types[TypeNumber] = struct{}{}
		}
	case int, int32, int64:
		n.types[TypeInteger] = struct{}{}
	case map[string]interface{}:
		n.types[TypeObject] = struct{}{}
		n.objCount = 1
		for name, fv := range v {
			n.fields[name] = &field{node: Infer(fv), count: 1}
		}
	case []interface{}:
		n.types[TypeArray] = struct{}{}
		for _, ev := range v {
			if n.elem == nil {
				n.elem = Infer(ev)
			} else {
				n.elem = Merge(n.elem, Infer(ev))
			}
		}
	default:
		n.types[TypeString] = struct{}{}
	}

	return n
}

// numberType reports integer only when the literal has no fractional or
// exponent component, so 5 stays integer while 5.5 and 5e-1 become number.
func numberType(v json.Number) string {
	s := v.String()
	if strings.ContainsAny(s, ".eE") {
		return TypeNumber
	}
	return TypeInteger
}

// InferJSON infers a schema from raw JSON text.
func InferJSON(text string) (*Node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return Infer(value), nil
}

// Merge combines two nodes into a fresh node. The operation is commutative
// and associative except for the retained example, which comes from the left
// operand when both are set; callers merge in capture order so the first
// observed example wins.
func Merge(a, b *Node) *Node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := newNode()
	for t := range a.types {
		out.types[t] = struct{}{}
	}
	for t := range b.types {
		out.types[t] = struct{}{}
	}
	// integer is a subset of number; observing both means the field is a
	// number, not a two-way union.
	if _, hasNum := out.types[TypeNumber]; hasNum {
		delete(out.types, TypeInteger)
	}

	out.count = a.count + b.count
	out.objCount = a.objCount + b.objCount

	for name, fa := range a.fields {
		out.fields[name] = &field{node: fa.node, count: fa.count}
	}
	for name, fb := range b.fields {
		if existing, ok := out.fields[name]; ok {
			out.fields[name] = &field{
				node:  Merge(existing.node, fb.node),
				count: existing.count + fb.count,
			}
		} else {
			out.fields[name] = &field{node: fb.node, count: fb.count}
		}
	}

	out.elem = Merge(a.elem, b.elem)

	if a.exampleSet {
		out.example, out.exampleSet = a.example, true
	} else if b.exampleSet {
		out.example, out.exampleSet = b.example, true
	}

	return out
}

// Types returns the observed type set, sorted.
func (n *Node) Types() []string {
	out := make([]string, 0, len(n.types))
	for t := range n.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasType reports whether the type was observed.
func (n *Node) HasType(t string) bool {
	_, ok := n.types[t]
	return ok
}

// FieldNames returns the union of observed field names, sorted.
func (n *Node) FieldNames() []string {
	out := make([]string, 0, len(n.fields))
	for name := range n.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Field returns the merged schema of a named field.
func (n *Node) Field(name string) (*Node, bool) {
	f, ok := n.fields[name]
	if !ok {
		return nil, false
	}
	return f.node, true
}

// RequiredFields returns the fields present in every observed object
// instance, sorted.
func (n *Node) RequiredFields() []string {
	var out []string
	for name, f := range n.fields {
		if f.count == n.objCount && n.objCount > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Elem returns the merged element schema when the node was observed as an
// array, or nil.
func (n *Node) Elem() *Node {
	return n.elem
}

// Example returns the first observed value in capture order.
func (n *Node) Example() interface{} {
	return n.example
}

// Count returns the number of observations merged into this node.
func (n *Node) Count() int {
	return n.count
}

// Conflict describes a location where divergent types were observed.
type Conflict struct {
	Path  string
	Types []string
}

// Conflicts walks the node and reports every union type, so type
// disagreements are surfaced instead of silently dropped.
func Conflicts(n *Node) []Conflict {
	var out []Conflict
	collectConflicts(n, "$", &out)
	return out
}

func collectConflicts(n *Node, path string, out *[]Conflict) {
	if n == nil {
		return
	}
	nonNull := 0
	for t := range n.types {
		if t != TypeNull {
			nonNull++
		}
	}
	if nonNull > 1 {
		*out = append(*out, Conflict{Path: path, Types: n.Types()})
	}
	for _, name := range n.FieldNames() {
		f, _ := n.Field(name)
		collectConflicts(f, path+"."+name, out)
	}
	collectConflicts(n.elem, path+"[]", out)
}
