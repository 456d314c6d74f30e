package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/PentesterFlow/harspec/internal/capture"
)

func TestCollectExchangeStats(t *testing.T) {
	exchanges := []*capture.Exchange{
		{
			Method: "GET", Status: 200,
			ResponseBody:   capture.Body{MimeType: "application/json; charset=utf-8"},
			RequestHeaders: capture.Headers{{Name: "Authorization", Value: "Bearer x"}},
		},
		{
			Method: "GET", Status: 404,
			ResponseBody: capture.Body{MimeType: "application/json"},
		},
		{
			Method: "POST", Status: 201,
			RequestHeaders: capture.Headers{{Name: "Cookie", Value: "s=1"}},
		},
	}

	var stats Statistics
	CollectExchangeStats(&stats, exchanges)

	if stats.ByMethod["GET"] != 2 || stats.ByMethod["POST"] != 1 {
		t.Errorf("ByMethod = %v", stats.ByMethod)
	}
	if stats.ByStatus[200] != 1 || stats.ByStatus[404] != 1 || stats.ByStatus[201] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
	// Content type parameters are stripped before counting.
	if stats.ContentTypes["application/json"] != 2 {
		t.Errorf("ContentTypes = %v", stats.ContentTypes)
	}
	if stats.AuthPatterns["bearer"] != 1 || stats.AuthPatterns["cookie"] != 1 {
		t.Errorf("AuthPatterns = %v", stats.AuthPatterns)
	}
}

func TestJSONWriter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, true)

	r := &RunReport{
		Captures:   []string{"a.har"},
		Statistics: Statistics{EntriesLoaded: 3, Templates: 1},
		Templates: []TemplateSummary{
			{Method: "GET", Path: "/items/{itemId}", Calls: 3, Statuses: []int{200}},
		},
	}
	if err := w.WriteReport(r); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	var decoded RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("written report is not valid JSON: %v", err)
	}
	if decoded.Statistics.EntriesLoaded != 3 {
		t.Errorf("EntriesLoaded = %d, want 3", decoded.Statistics.EntriesLoaded)
	}
	if len(decoded.Templates) != 1 || decoded.Templates[0].Path != "/items/{itemId}" {
		t.Errorf("Templates = %+v", decoded.Templates)
	}
}

func TestJSONWriter_Closed(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, false)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.WriteReport(&RunReport{}); err != nil {
		t.Fatalf("WriteReport() after close error = %v", err)
	}
	if buf.Len() != 0 {
		t.Error("closed writer must not write")
	}
}
