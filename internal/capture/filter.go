package capture

import (
	"regexp"
	"strings"
)

var apiPathPattern = regexp.MustCompile(`(?i)/(v\d+|rest|graphql|api)(/|$)`)

// IsAPICandidate reports whether an exchange looks like an API call rather
// than a page, asset, or tracking request. The heuristics: JSON content,
// API-ish path segments, XHR markers, or a mutating method.
func IsAPICandidate(ex *Exchange) bool {
	if strings.Contains(strings.ToLower(ex.ResponseBody.MimeType), "json") {
		return true
	}
	if strings.Contains(strings.ToLower(ex.URL), "/api/") {
		return true
	}
	if ex.RequestHeaders.Has("X-Requested-With") {
		return true
	}
	switch ex.Method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return apiPathPattern.MatchString(ex.URL)
}

// FilterAPI returns the exchanges that look like API calls, preserving
// capture order.
func FilterAPI(exchanges []*Exchange) []*Exchange {
	out := make([]*Exchange, 0, len(exchanges))
	for _, ex := range exchanges {
		if IsAPICandidate(ex) {
			out = append(out, ex)
		}
	}
	return out
}
