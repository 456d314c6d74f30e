package openapi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/PentesterFlow/harspec/internal/capture"
)

// Security summarizes authentication patterns observed in a capture.
// Detection must run on the loaded exchanges, before sanitization replaces
// the header values that distinguish bearer from basic credentials.
type Security struct {
	Bearer        bool
	Basic         bool
	CookieAuth    bool
	APIKeyHeaders []string
}

// Empty reports whether no auth pattern was observed.
func (s Security) Empty() bool {
	return !s.Bearer && !s.Basic && !s.CookieAuth && len(s.APIKeyHeaders) == 0
}

// DetectSecurity scans request headers for bearer tokens, basic credentials,
// cookies, and API-key style custom headers.
func DetectSecurity(exchanges []*capture.Exchange) Security {
	var sec Security
	apiKeys := make(map[string]struct{})

	for _, ex := range exchanges {
		for _, h := range ex.RequestHeaders {
			name := strings.ToLower(h.Name)
			switch {
			case name == "authorization":
				if strings.HasPrefix(h.Value, "Bearer") {
					sec.Bearer = true
				} else if strings.HasPrefix(h.Value, "Basic") {
					sec.Basic = true
				}
			case name == "cookie":
				sec.CookieAuth = true
			case strings.Contains(name, "api") && strings.Contains(name, "key"),
				strings.HasPrefix(name, "x-auth"):
				apiKeys[h.Name] = struct{}{}
			}
		}
	}

	for name := range apiKeys {
		sec.APIKeyHeaders = append(sec.APIKeyHeaders, name)
	}
	sort.Strings(sec.APIKeyHeaders)
	return sec
}

// securitySchemes translates detected patterns into components entries.
func (s Security) schemes() map[string]*SecurityScheme {
	if s.Empty() {
		return nil
	}
	out := make(map[string]*SecurityScheme)
	if s.Bearer {
		out["BearerAuth"] = &SecurityScheme{
			Type:        "http",
			Scheme:      "bearer",
			Description: "Bearer token authentication observed in capture",
		}
	}
	if s.Basic {
		out["BasicAuth"] = &SecurityScheme{
			Type:        "http",
			Scheme:      "basic",
			Description: "Basic authentication observed in capture",
		}
	}
	if s.CookieAuth {
		out["CookieAuth"] = &SecurityScheme{
			Type:        "apiKey",
			In:          "cookie",
			Name:        "session",
			Description: "Cookie-based session observed in capture",
		}
	}
	for i, header := range s.APIKeyHeaders {
		key := "ApiKeyAuth"
		if i > 0 {
			key = "ApiKeyAuth" + strconv.Itoa(i+1)
		}
		out[key] = &SecurityScheme{
			Type:        "apiKey",
			In:          "header",
			Name:        header,
			Description: "API key header observed in capture",
		}
	}
	return out
}
