// Package capture loads HAR documents into normalized request/response
// exchanges and writes sanitized exchanges back out as HAR.
package capture

import "strings"

// Param is a single name/value pair (header, query parameter).
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered list of headers with case-insensitive lookup.
type Headers []Param

// Get returns the first value for the given header name, case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for _, p := range h {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether the header is present.
func (h Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Clone returns a deep copy.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	copy(out, h)
	return out
}

// Body holds one message body with its inferred content type.
type Body struct {
	MimeType string
	Text     string // decoded text when decodable, raw text otherwise
	Encoding string // original HAR encoding ("" or "base64" or unknown)
	Opaque   bool   // true when the body could not be decoded; inference skips it
	Size     int64
}

// IsJSON reports whether the body looks like JSON and can be inspected.
func (b Body) IsJSON() bool {
	if b.Opaque || b.Text == "" {
		return false
	}
	return strings.Contains(strings.ToLower(b.MimeType), "json")
}

// Exchange is one captured request/response pair. Exchanges are created once
// at load time and never mutated; every transformation works on copies.
type Exchange struct {
	Index   int    // position in capture order, used as example tie-break
	Capture string // source capture file

	Method string
	URL    string
	Scheme string
	Host   string
	Path   string
	Query  []Param

	RequestHeaders Headers
	RequestBody    Body

	Status          int
	StatusText      string
	ResponseHeaders Headers
	ResponseBody    Body

	HTTPVersion string
	StartedAt   string  // original startedDateTime, preserved for round-trip
	TimeMillis  float64 // original entry time
}

// Clone returns a deep copy of the exchange. The sanitizer works on clones so
// the loaded sequence stays untouched.
func (e *Exchange) Clone() *Exchange {
	out := *e
	out.Query = append([]Param(nil), e.Query...)
	out.RequestHeaders = e.RequestHeaders.Clone()
	out.ResponseHeaders = e.ResponseHeaders.Clone()
	return &out
}

// PathSegments returns the path split into non-empty segments.
func (e *Exchange) PathSegments() []string {
	return SplitPath(e.Path)
}

// SplitPath splits a URL path into its non-empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
