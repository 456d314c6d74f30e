// Package cluster groups exchanges into endpoint templates by generalizing
// variable path segments into placeholders.
package cluster

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/PentesterFlow/harspec/internal/capture"
)

// Segment is one position of a path template: either a fixed literal or a
// named placeholder.
type Segment struct {
	Literal  string
	Param    string
	Variable bool
}

// Template is a generalized path pattern representing one or more exchanges
// whose paths differ only in variable segments. All contributing exchanges
// share the template's method and match its pattern.
type Template struct {
	Method    string
	Path      string
	Segments  []Segment
	Exchanges []*capture.Exchange // capture order
}

// pattern is the working representation during clustering: one string per
// segment position, or varMark for a generalized position.
const varMark = "\x00var"

type group struct {
	pattern   []string
	exchanges []*capture.Exchange
}

// Cluster groups exchanges by (method, path shape). A segment position is
// generalized when it varies across otherwise-identical paths or when it
// looks like an identifier. Exchanges that group with nothing become
// singleton templates rather than being dropped.
func Cluster(exchanges []*capture.Exchange) []*Template {
	buckets := make(map[string][]*capture.Exchange)
	var bucketKeys []string
	for _, ex := range exchanges {
		key := ex.Method + " " + strconv.Itoa(len(ex.PathSegments()))
		if _, ok := buckets[key]; !ok {
			bucketKeys = append(bucketKeys, key)
		}
		buckets[key] = append(buckets[key], ex)
	}
	sort.Strings(bucketKeys)

	var templates []*Template
	for _, key := range bucketKeys {
		method := key[:strings.IndexByte(key, ' ')]
		for _, g := range clusterBucket(buckets[key]) {
			templates = append(templates, buildTemplate(method, g))
		}
	}

	sort.Slice(templates, func(i, j int) bool {
		if templates[i].Path != templates[j].Path {
			return templates[i].Path < templates[j].Path
		}
		return templates[i].Method < templates[j].Method
	})
	return templates
}

// clusterBucket clusters exchanges that share a method and segment count.
// Initial patterns mark identifier-looking segments variable; groups whose
// patterns then disagree in at most one position are merged, generalizing
// only that position. Merging one position at a time keeps the maximum
// number of literal segments, so distinct endpoints are not over-generalized
// into one template.
func clusterBucket(exchanges []*capture.Exchange) []*group {
	groupsByKey := make(map[string]*group)
	var order []string
	for _, ex := range exchanges {
		pat := initialPattern(ex.PathSegments())
		key := strings.Join(pat, "/")
		g, ok := groupsByKey[key]
		if !ok {
			g = &group{pattern: pat}
			groupsByKey[key] = g
			order = append(order, key)
		}
		g.exchanges = append(g.exchanges, ex)
	}
	sort.Strings(order)

	groups := make([]*group, 0, len(order))
	for _, key := range order {
		groups = append(groups, groupsByKey[key])
	}

	// Fixpoint merge. Each pass merges at most compatible pairs; repeat
	// until stable.
	for {
		merged := false
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				combined, ok := mergePatterns(groups[i].pattern, groups[j].pattern)
				if !ok {
					continue
				}
				groups[i].pattern = combined
				groups[i].exchanges = append(groups[i].exchanges, groups[j].exchanges...)
				groups = append(groups[:j], groups[j+1:]...)
				merged = true
				j--
			}
		}
		if !merged {
			break
		}
	}

	for _, g := range groups {
		sort.Slice(g.exchanges, func(a, b int) bool {
			return g.exchanges[a].Index < g.exchanges[b].Index
		})
	}
	return groups
}

// initialPattern marks identifier-looking segments as variable up front, so
// a singleton like GET /items/42 still templates to /items/{id}.
func initialPattern(segments []string) []string {
	pat := make([]string, len(segments))
	for i, seg := range segments {
		if LooksLikeID(seg) {
			pat[i] = varMark
		} else {
			pat[i] = seg
		}
	}
	return pat
}

// mergePatterns combines two same-length patterns when they disagree in at
// most one position. A literal mismatch and a placeholder facing a literal
// both surrender a literal segment, so both count against the same budget;
// merging therefore never gives up more than one literal position per step.
func mergePatterns(a, b []string) ([]string, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	out := make([]string, len(a))
	diffs := 0
	for i := range a {
		if a[i] == b[i] {
			out[i] = a[i]
			continue
		}
		diffs++
		if diffs > 1 {
			return nil, false
		}
		out[i] = varMark
	}
	return out, true
}

func buildTemplate(method string, g *group) *Template {
	t := &Template{
		Method:    method,
		Exchanges: g.exchanges,
	}

	used := make(map[string]int)
	var sb strings.Builder
	if len(g.pattern) == 0 {
		sb.WriteString("/")
	}
	for i, p := range g.pattern {
		sb.WriteString("/")
		if p == varMark {
			name := paramName(g.pattern, i, used)
			t.Segments = append(t.Segments, Segment{Param: name, Variable: true})
			sb.WriteString("{" + name + "}")
		} else {
			t.Segments = append(t.Segments, Segment{Literal: p})
			sb.WriteString(p)
		}
	}
	t.Path = sb.String()
	return t
}

// paramName derives a placeholder name from the preceding literal segment
// (/items/{itemId}) and falls back to plain id, numbering duplicates.
func paramName(pattern []string, pos int, used map[string]int) string {
	base := "id"
	if pos > 0 && pattern[pos-1] != varMark {
		base = singular(identWord(pattern[pos-1])) + "Id"
	}
	used[base]++
	if used[base] > 1 {
		return base + strconv.Itoa(used[base])
	}
	return base
}

// identWord keeps only identifier-safe characters of a segment.
func identWord(seg string) string {
	var sb strings.Builder
	for _, r := range seg {
		if r == '-' || r == '.' {
			continue
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return "segment"
	}
	return strings.ToLower(sb.String())
}

func singular(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ses") && len(word) > 3:
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && len(word) > 1:
		return word[:len(word)-1]
	default:
		return word
	}
}

// LooksLikeID reports whether a path segment looks like a record identifier:
// a pure number, a UUID, or a long hex run.
func LooksLikeID(seg string) bool {
	if seg == "" {
		return false
	}
	if isDigits(seg) {
		return true
	}
	if _, err := uuid.Parse(seg); err == nil {
		return true
	}
	return len(seg) >= 8 && isHex(seg)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
