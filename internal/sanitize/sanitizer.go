package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PentesterFlow/harspec/internal/capture"
	"github.com/PentesterFlow/harspec/internal/logger"
)

// Sanitizer applies a RuleSet to exchange copies. The original sequence is
// never mutated; sanitization happens exactly once, before any output is
// persisted or displayed.
type Sanitizer struct {
	rules  *RuleSet
	values []compiledValue
	log    *logger.Logger

	summary Summary
}

type compiledValue struct {
	re     *regexp.Regexp
	action Action
}

// Summary counts what the sanitizer did, for the run report and dry runs.
type Summary struct {
	Redacted int            `json:"redacted"`
	Dropped  int            `json:"dropped"`
	Hashed   int            `json:"hashed"`
	ByPlace  map[string]int `json:"by_location"`
}

// Total returns the number of sanitization actions applied.
func (s Summary) Total() int {
	return s.Redacted + s.Dropped + s.Hashed
}

// New creates a sanitizer. A nil rule set means the defaults.
func New(rules *RuleSet, log *logger.Logger) (*Sanitizer, error) {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Sanitizer{
		rules: rules,
		log:   log.WithComponent("sanitize"),
	}
	s.summary.ByPlace = make(map[string]int)
	for _, v := range rules.Values {
		s.values = append(s.values, compiledValue{
			re:     regexp.MustCompile("(?i)" + v.Pattern),
			action: v.Action,
		})
	}
	return s, nil
}

// Apply sanitizes a copy of every exchange and returns the new sequence in
// the same order.
func (s *Sanitizer) Apply(exchanges []*capture.Exchange) []*capture.Exchange {
	out := make([]*capture.Exchange, 0, len(exchanges))
	for _, ex := range exchanges {
		out = append(out, s.Exchange(ex))
	}
	return out
}

// Exchange sanitizes a single exchange copy.
func (s *Sanitizer) Exchange(ex *capture.Exchange) *capture.Exchange {
	c := ex.Clone()

	c.RequestHeaders = s.headers(c.RequestHeaders, "request_header")
	c.ResponseHeaders = s.headers(c.ResponseHeaders, "response_header")
	c.Query = s.params(c.Query, "query")
	c.RequestBody = s.body(c.RequestBody, "request_body")
	c.ResponseBody = s.body(c.ResponseBody, "response_body")
	c.URL = c.RebuildURL() // reflect sanitized query values in the URL itself
	return c
}

// Redactions returns the running summary across all sanitized exchanges.
func (s *Sanitizer) Redactions() Summary {
	return s.summary
}

// headerAction resolves the action for a header: the exact header list
// first, then the name deny-list, matching partially. Ambiguity resolves
// toward redaction.
func (s *Sanitizer) headerAction(name string) (Action, bool) {
	for h, action := range s.rules.Headers {
		if strings.EqualFold(h, name) {
			return action, true
		}
	}
	return s.nameAction(name)
}

// nameAction matches a field or parameter name against the deny-list by
// case-insensitive substring.
func (s *Sanitizer) nameAction(name string) (Action, bool) {
	lower := strings.ToLower(name)
	for pattern, action := range s.rules.Names {
		if strings.Contains(lower, pattern) {
			return action, true
		}
	}
	return "", false
}

func (s *Sanitizer) headers(headers capture.Headers, place string) capture.Headers {
	if headers == nil {
		return nil
	}
	out := make(capture.Headers, 0, len(headers))
	for _, h := range headers {
		if action, ok := s.headerAction(h.Name); ok {
			if action == ActionDrop {
				s.record(ActionDrop, place, h.Name)
				continue
			}
			out = append(out, capture.Param{Name: h.Name, Value: s.replace(action, h.Value)})
			s.record(action, place, h.Name)
			continue
		}
		out = append(out, capture.Param{Name: h.Name, Value: s.scrubText(h.Value, place)})
	}
	return out
}

func (s *Sanitizer) params(params []capture.Param, place string) []capture.Param {
	if params == nil {
		return nil
	}
	out := make([]capture.Param, 0, len(params))
	for _, p := range params {
		if action, ok := s.nameAction(p.Name); ok {
			if action == ActionDrop {
				s.record(ActionDrop, place, p.Name)
				continue
			}
			out = append(out, capture.Param{Name: p.Name, Value: s.replace(action, p.Value)})
			s.record(action, place, p.Name)
			continue
		}
		out = append(out, capture.Param{Name: p.Name, Value: s.scrubText(p.Value, place)})
	}
	return out
}

// body sanitizes a message body. JSON bodies are walked structurally so
// redaction can preserve field types; anything else gets the value regexes.
func (s *Sanitizer) body(b capture.Body, place string) capture.Body {
	if b.Opaque || b.Text == "" {
		return b
	}

	if b.IsJSON() {
		if text, ok := s.scrubJSON(b.Text, place); ok {
			b.Text = text
			b.Size = int64(len(text))
			return b
		}
		// Declared JSON but unparsable: fall through to text scrubbing.
	}

	text := s.scrubText(b.Text, place)
	b.Text = text
	b.Size = int64(len(text))
	return b
}

func (s *Sanitizer) scrubJSON(text, place string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return "", false
	}

	cleaned := s.scrubValue(value, place, false)

	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cleaned); err != nil {
		return "", false
	}
	return strings.TrimSuffix(sb.String(), "\n"), true
}

// scrubValue walks decoded JSON. When force is set (a deny-listed name
// matched a container) every scalar underneath is redacted.
func (s *Sanitizer) scrubValue(value interface{}, place string, force bool) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for name, fv := range v {
			action, matched := s.nameAction(name)
			if matched && action == ActionDrop {
				s.record(ActionDrop, place, name)
				continue
			}
			if matched || force {
				if action == "" {
					action = ActionRedact
				}
				out[name] = s.redactTyped(fv, action, place, name)
				continue
			}
			out[name] = s.scrubValue(fv, place, false)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, ev := range v {
			out[i] = s.scrubValue(ev, place, force)
		}
		return out
	case string:
		if force {
			s.record(ActionRedact, place, "")
			return Placeholder
		}
		return s.scrubText(v, place)
	default:
		return v
	}
}

// redactTyped replaces a value while preserving its JSON type: strings
// become the placeholder, numbers become zero, booleans stay, containers
// are scrubbed recursively with force on.
func (s *Sanitizer) redactTyped(value interface{}, action Action, place, name string) interface{} {
	switch v := value.(type) {
	case string:
		s.record(action, place, name)
		return s.replace(action, v)
	case json.Number:
		s.record(action, place, name)
		if action == ActionHash {
			return hashValue(v.String())
		}
		return json.Number("0")
	case float64:
		s.record(action, place, name)
		return float64(0)
	case bool:
		return v
	case map[string]interface{}, []interface{}:
		return s.scrubValue(v, place, true)
	default:
		return value
	}
}

// scrubText applies the value regexes to free-form text.
func (s *Sanitizer) scrubText(text, place string) string {
	if text == "" {
		return text
	}
	for _, cv := range s.values {
		if !cv.re.MatchString(text) {
			continue
		}
		action := cv.action
		text = cv.re.ReplaceAllStringFunc(text, func(m string) string {
			s.record(action, place, "")
			return s.replace(action, m)
		})
	}
	return text
}

func (s *Sanitizer) replace(action Action, value string) string {
	switch action {
	case ActionHash:
		return hashValue(value)
	default:
		return Placeholder
	}
}

// hashValue returns a short stable digest so correlating values survive
// sanitization without disclosing them.
func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return "sha256:" + hex.EncodeToString(sum[:8])
}

func (s *Sanitizer) record(action Action, place, name string) {
	switch action {
	case ActionDrop:
		s.summary.Dropped++
	case ActionHash:
		s.summary.Hashed++
	default:
		s.summary.Redacted++
	}
	s.summary.ByPlace[place]++
	if name != "" {
		s.log.RedactionEvent(place, name, string(action))
	}
}
