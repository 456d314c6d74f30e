package sanitize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PentesterFlow/harspec/internal/capture"
)

func newTestSanitizer(t *testing.T, rules *RuleSet) *Sanitizer {
	t.Helper()
	s, err := New(rules, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func decodeBody(t *testing.T, text string) map[string]interface{} {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		t.Fatalf("sanitized body is not valid JSON: %v\n%s", err, text)
	}
	return out
}

// =============================================================================
// Header Tests
// =============================================================================

func TestSanitizer_AuthorizationHeader(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		Method: "GET",
		RequestHeaders: capture.Headers{
			{Name: "Authorization", Value: "Bearer eyJhbGciOiJIUzI1NiJ9.payload.sig"},
			{Name: "Accept", Value: "application/json"},
			{Name: "X-Request-Trace", Value: "trace-1"},
		},
	}

	got := s.Exchange(ex)

	if v, _ := got.RequestHeaders.Get("Authorization"); v != Placeholder {
		t.Errorf("Authorization = %q, want %q", v, Placeholder)
	}
	if v, _ := got.RequestHeaders.Get("Accept"); v != "application/json" {
		t.Errorf("Accept = %q, should be untouched", v)
	}
	if v, _ := got.RequestHeaders.Get("X-Request-Trace"); v != "trace-1" {
		t.Errorf("X-Request-Trace = %q, should be untouched", v)
	}

	// The original exchange must stay untouched.
	if v, _ := ex.RequestHeaders.Get("Authorization"); v == Placeholder {
		t.Error("sanitizer mutated the original exchange")
	}
}

func TestSanitizer_HeaderCaseInsensitive(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		RequestHeaders: capture.Headers{
			{Name: "authorization", Value: "Basic dXNlcjpwYXNz"},
			{Name: "COOKIE", Value: "session=abc"},
		},
	}

	got := s.Exchange(ex)
	for _, h := range got.RequestHeaders {
		if h.Value != Placeholder {
			t.Errorf("header %s = %q, want %q", h.Name, h.Value, Placeholder)
		}
	}
}

func TestSanitizer_SetCookieResponseHeader(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		ResponseHeaders: capture.Headers{
			{Name: "Set-Cookie", Value: "session=secret; HttpOnly"},
			{Name: "Content-Type", Value: "application/json"},
		},
	}

	got := s.Exchange(ex)
	if v, _ := got.ResponseHeaders.Get("Set-Cookie"); v != Placeholder {
		t.Errorf("Set-Cookie = %q, want %q", v, Placeholder)
	}
	if v, _ := got.ResponseHeaders.Get("Content-Type"); v != "application/json" {
		t.Errorf("Content-Type = %q, should be untouched", v)
	}
}

// =============================================================================
// JSON Body Tests
// =============================================================================

func TestSanitizer_BodyNameDenyList(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		RequestBody: capture.Body{
			MimeType: "application/json",
			Text:     `{"username": "alice", "password": "hunter2", "api_token": "t0ps3cret", "note": "hello"}`,
		},
	}

	body := decodeBody(t, s.Exchange(ex).RequestBody.Text)

	if body["password"] != Placeholder {
		t.Errorf("password = %v, want %q", body["password"], Placeholder)
	}
	if body["api_token"] != Placeholder {
		t.Errorf("api_token = %v, want %q (substring match on token)", body["api_token"], Placeholder)
	}
	if body["username"] != "alice" {
		t.Errorf("username = %v, should be untouched", body["username"])
	}
	if body["note"] != "hello" {
		t.Errorf("note = %v, should be untouched", body["note"])
	}
}

func TestSanitizer_TypePreservingRedaction(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		ResponseBody: capture.Body{
			MimeType: "application/json",
			Text:     `{"session_id": 12345, "token": "abc", "auth_enabled": true, "count": 7}`,
		},
	}

	body := decodeBody(t, s.Exchange(ex).ResponseBody.Text)

	// Redacted number keeps its numeric type so schema inference still works.
	if n, ok := body["session_id"].(json.Number); !ok || n.String() != "0" {
		t.Errorf("session_id = %v (%T), want json.Number 0", body["session_id"], body["session_id"])
	}
	if body["token"] != Placeholder {
		t.Errorf("token = %v, want %q", body["token"], Placeholder)
	}
	// Booleans carry no secret content and keep their value.
	if body["auth_enabled"] != true {
		t.Errorf("auth_enabled = %v, want true", body["auth_enabled"])
	}
	if n, ok := body["count"].(json.Number); !ok || n.String() != "7" {
		t.Errorf("count = %v, should be untouched", body["count"])
	}
}

func TestSanitizer_NestedAndContainerRedaction(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		RequestBody: capture.Body{
			MimeType: "application/json",
			Text:     `{"credentials": {"user": "a", "pin": 1234}, "items": [{"password": "x"}]}`,
		},
	}

	body := decodeBody(t, s.Exchange(ex).RequestBody.Text)

	// A deny-listed container redacts every scalar underneath.
	creds := body["credentials"].(map[string]interface{})
	if creds["user"] != Placeholder {
		t.Errorf("credentials.user = %v, want %q", creds["user"], Placeholder)
	}
	if n, ok := creds["pin"].(json.Number); !ok || n.String() != "0" {
		t.Errorf("credentials.pin = %v, want 0", creds["pin"])
	}

	items := body["items"].([]interface{})
	inner := items[0].(map[string]interface{})
	if inner["password"] != Placeholder {
		t.Errorf("items[0].password = %v, want %q", inner["password"], Placeholder)
	}
}

func TestSanitizer_DropAndHashActions(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Names["internal_id"] = ActionDrop
	rules.Names["account"] = ActionHash

	s := newTestSanitizer(t, rules)
	ex := &capture.Exchange{
		RequestBody: capture.Body{
			MimeType: "application/json",
			Text:     `{"internal_id": "x9", "account": "alice", "kept": 1}`,
		},
	}

	body := decodeBody(t, s.Exchange(ex).RequestBody.Text)

	if _, present := body["internal_id"]; present {
		t.Error("dropped field must be removed entirely")
	}
	hashed, _ := body["account"].(string)
	if !strings.HasPrefix(hashed, "sha256:") {
		t.Errorf("account = %q, want sha256: prefix", hashed)
	}
	if hashed == "alice" {
		t.Error("hashed value must not equal the original")
	}

	summary := s.Redactions()
	if summary.Dropped != 1 || summary.Hashed != 1 {
		t.Errorf("summary = %+v, want 1 dropped and 1 hashed", summary)
	}
}

func TestSanitizer_HashIsStable(t *testing.T) {
	if hashValue("alice") != hashValue("alice") {
		t.Error("hash of the same value must be stable")
	}
	if hashValue("alice") == hashValue("bob") {
		t.Error("hashes of different values should differ")
	}
}

// =============================================================================
// Value Pattern Tests
// =============================================================================

func TestSanitizer_ValuePatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "email in text body",
			text: "contact alice@example.com for access",
			want: "contact " + Placeholder + " for access",
		},
		{
			name: "bearer credential in text",
			text: "auth: Bearer abc123.def456",
			want: "auth: " + Placeholder,
		},
		{
			name: "card-like digits",
			text: "card 4111 1111 1111 1111 on file",
			want: "card " + Placeholder + " on file",
		},
		{
			name: "clean text untouched",
			text: "nothing sensitive here",
			want: "nothing sensitive here",
		},
	}

	s := newTestSanitizer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &capture.Exchange{
				RequestBody: capture.Body{MimeType: "text/plain", Text: tt.text},
			}
			if got := s.Exchange(ex).RequestBody.Text; got != tt.want {
				t.Errorf("sanitized = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Query and URL Tests
// =============================================================================

func TestSanitizer_QueryAndURL(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		Method: "GET",
		Scheme: "https",
		Host:   "api.example.com",
		Path:   "/search",
		URL:    "https://api.example.com/search?q=widget&access_token=abc123",
		Query: []capture.Param{
			{Name: "q", Value: "widget"},
			{Name: "access_token", Value: "abc123"},
		},
	}

	got := s.Exchange(ex)

	if got.Query[0].Value != "widget" {
		t.Errorf("q = %q, should be untouched", got.Query[0].Value)
	}
	if got.Query[1].Value != Placeholder {
		t.Errorf("access_token = %q, want %q", got.Query[1].Value, Placeholder)
	}
	if strings.Contains(got.URL, "abc123") {
		t.Errorf("URL still contains the secret: %s", got.URL)
	}
	if ex.URL != "https://api.example.com/search?q=widget&access_token=abc123" {
		t.Error("sanitizer mutated the original URL")
	}
}

// =============================================================================
// Opaque and Malformed Body Tests
// =============================================================================

func TestSanitizer_OpaqueBodyUntouched(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		ResponseBody: capture.Body{
			MimeType: "application/json",
			Text:     "binarydata",
			Opaque:   true,
		},
	}

	if got := s.Exchange(ex).ResponseBody.Text; got != "binarydata" {
		t.Errorf("opaque body = %q, should be untouched", got)
	}
}

func TestSanitizer_MalformedJSONFallsBackToText(t *testing.T) {
	s := newTestSanitizer(t, nil)
	ex := &capture.Exchange{
		RequestBody: capture.Body{
			MimeType: "application/json",
			Text:     `{"email": alice@example.com`, // not valid JSON
		},
	}

	got := s.Exchange(ex).RequestBody.Text
	if strings.Contains(got, "alice@example.com") {
		t.Errorf("value patterns should still apply to unparsable bodies: %q", got)
	}
}

// =============================================================================
// Rule Set Tests
// =============================================================================

func TestRuleSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RuleSet)
		wantErr bool
	}{
		{"defaults are valid", func(rs *RuleSet) {}, false},
		{"unknown action", func(rs *RuleSet) { rs.Names["x"] = Action("shred") }, true},
		{"bad pattern", func(rs *RuleSet) {
			rs.Values = append(rs.Values, ValueRule{Pattern: "([", Action: ActionRedact})
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := DefaultRuleSet()
			tt.mutate(rs)
			err := rs.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
