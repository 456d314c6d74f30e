package analyzer

import (
	"github.com/PentesterFlow/harspec/internal/errors"
	"github.com/PentesterFlow/harspec/internal/openapi"
	"github.com/PentesterFlow/harspec/internal/report"
	"github.com/PentesterFlow/harspec/internal/sanitize"
	"github.com/PentesterFlow/harspec/internal/validate"
)

// Result is the outcome of one analysis run.
type Result struct {
	// Document is the emitted OpenAPI document.
	Document *openapi.Document

	// Endpoints are the clustered templates with their inferred schemas,
	// in document order.
	Endpoints []openapi.Endpoint

	// Report is the run summary, including collected warnings.
	Report *report.RunReport

	// Issues are structural problems found by the post-emit self-check,
	// empty when validation passed or was disabled.
	Issues []validate.Issue
}

// Warnings returns the recoverable conditions collected during the run.
func (r *Result) Warnings() []errors.Warning {
	if r.Report == nil {
		return nil
	}
	return r.Report.Warnings
}

// SanitizeResult is the outcome of a standalone sanitize run.
type SanitizeResult struct {
	// Entries is the number of exchanges processed.
	Entries int

	// Summary counts the applied redactions.
	Summary sanitize.Summary

	// DryRun is true when no file was written.
	DryRun bool
}
