package cluster

import (
	"fmt"
	"sort"

	"github.com/PentesterFlow/harspec/internal/errors"
	"github.com/PentesterFlow/harspec/internal/schema"
)

// TemplateSchemas holds the merged body schemas of one endpoint template:
// one request schema and one response schema per observed status code.
type TemplateSchemas struct {
	Request   *schema.Node
	Responses map[int]*schema.Node
}

// StatusCodes returns the observed response status codes, sorted.
func (s *TemplateSchemas) StatusCodes() []int {
	codes := make([]int, 0, len(s.Responses))
	for code := range s.Responses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// InferSchemas merges the JSON bodies of all contributing exchanges in
// capture order, so the retained example is always the first one observed.
// Bodies that are opaque or not JSON are skipped; malformed JSON bodies are
// skipped with a warning. Type conflicts become declared unions and are
// additionally recorded as warnings.
func InferSchemas(t *Template, warns *errors.Collector) *TemplateSchemas {
	out := &TemplateSchemas{Responses: make(map[int]*schema.Node)}

	for _, ex := range t.Exchanges {
		if ex.RequestBody.IsJSON() {
			node, err := schema.InferJSON(ex.RequestBody.Text)
			if err != nil {
				if warns != nil {
					warns.Addf(errors.BodyEncoding, ex.Capture, ex.Index,
						"request body declared JSON but failed to parse, skipped")
				}
			} else {
				out.Request = schema.Merge(out.Request, node)
			}
		}

		if ex.ResponseBody.IsJSON() {
			node, err := schema.InferJSON(ex.ResponseBody.Text)
			if err != nil {
				if warns != nil {
					warns.Addf(errors.BodyEncoding, ex.Capture, ex.Index,
						"response body declared JSON but failed to parse, skipped")
				}
			} else {
				out.Responses[ex.Status] = schema.Merge(out.Responses[ex.Status], node)
			}
		}
	}

	if warns != nil {
		reportConflicts(t, out, warns)
	}
	return out
}

func reportConflicts(t *Template, s *TemplateSchemas, warns *errors.Collector) {
	for _, c := range schema.Conflicts(s.Request) {
		warns.Add(errors.NewSchemaConflict(
			fmt.Sprintf("%s %s request %s", t.Method, t.Path, c.Path), c.Types))
	}
	for _, code := range s.StatusCodes() {
		for _, c := range schema.Conflicts(s.Responses[code]) {
			warns.Add(errors.NewSchemaConflict(
				fmt.Sprintf("%s %s response %d %s", t.Method, t.Path, code, c.Path), c.Types))
		}
	}
}
