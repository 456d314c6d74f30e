// Package report builds and writes machine-readable run summaries.
package report

import (
	"strings"
	"time"

	"github.com/PentesterFlow/harspec/internal/capture"
	"github.com/PentesterFlow/harspec/internal/errors"
)

// RunReport is the complete summary of one analysis run: statistics, the
// endpoint inventory, and every recoverable condition collected along the
// way.
type RunReport struct {
	Captures    []string      `json:"captures"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`

	Statistics Statistics        `json:"statistics"`
	Templates  []TemplateSummary `json:"templates,omitempty"`
	Warnings   []errors.Warning  `json:"warnings,omitempty"`
}

// Statistics aggregates counts across the run.
type Statistics struct {
	EntriesLoaded     int `json:"entries_loaded"`
	APICandidates     int `json:"api_candidates"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	Templates         int `json:"templates"`
	Operations        int `json:"operations"`
	Redactions        int `json:"redactions"`
	Warnings          int `json:"warnings"`

	ByMethod     map[string]int `json:"by_method,omitempty"`
	ByStatus     map[int]int    `json:"by_status,omitempty"`
	ContentTypes map[string]int `json:"content_types,omitempty"`

	AuthPatterns map[string]int `json:"auth_patterns,omitempty"`
}

// TemplateSummary is one line of the endpoint inventory.
type TemplateSummary struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Calls    int    `json:"calls"`
	Statuses []int  `json:"statuses,omitempty"`
}

// CollectExchangeStats fills the per-exchange breakdowns of the statistics
// block: method, status, content type, and auth pattern histograms.
func CollectExchangeStats(stats *Statistics, exchanges []*capture.Exchange) {
	if stats.ByMethod == nil {
		stats.ByMethod = make(map[string]int)
	}
	if stats.ByStatus == nil {
		stats.ByStatus = make(map[int]int)
	}
	if stats.ContentTypes == nil {
		stats.ContentTypes = make(map[string]int)
	}
	if stats.AuthPatterns == nil {
		stats.AuthPatterns = make(map[string]int)
	}

	for _, ex := range exchanges {
		stats.ByMethod[ex.Method]++
		if ex.Status > 0 {
			stats.ByStatus[ex.Status]++
		}
		if mt := baseMimeType(ex.ResponseBody.MimeType); mt != "" {
			stats.ContentTypes[mt]++
		}
		if auth, ok := ex.RequestHeaders.Get("Authorization"); ok {
			switch {
			case strings.HasPrefix(auth, "Bearer"):
				stats.AuthPatterns["bearer"]++
			case strings.HasPrefix(auth, "Basic"):
				stats.AuthPatterns["basic"]++
			default:
				stats.AuthPatterns["other"]++
			}
		}
		if ex.RequestHeaders.Has("Cookie") {
			stats.AuthPatterns["cookie"]++
		}
	}
}

func baseMimeType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}
