package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/PentesterFlow/harspec/internal/archive"
	"github.com/PentesterFlow/harspec/internal/capture"
	"github.com/PentesterFlow/harspec/internal/cluster"
	"github.com/PentesterFlow/harspec/internal/errors"
	"github.com/PentesterFlow/harspec/internal/logger"
	"github.com/PentesterFlow/harspec/internal/openapi"
	"github.com/PentesterFlow/harspec/internal/report"
	"github.com/PentesterFlow/harspec/internal/sanitize"
	"github.com/PentesterFlow/harspec/internal/validate"
)

// Analyzer runs the capture-to-OpenAPI pipeline.
type Analyzer struct {
	config *Config
	log    *logger.Logger
}

// New creates an analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.log == nil {
		level := logger.InfoLevel
		if a.config.Debug {
			level = logger.DebugLevel
		} else if !a.config.Verbose {
			level = logger.WarnLevel
		}
		a.log = logger.New(logger.Config{
			Level:     level,
			Pretty:    true,
			Output:    os.Stderr,
			Component: "analyzer",
		})
	}

	return a, nil
}

// Analyze runs Loader -> Sanitizer -> Clusterer -> Inferrer -> Emitter over
// the configured captures and writes the configured outputs. Recoverable
// conditions are collected into the run report; only malformed captures and
// write failures return an error.
func (a *Analyzer) Analyze(ctx context.Context) (*Result, error) {
	if err := a.config.Validate(); err != nil {
		return nil, err
	}

	warns := errors.NewCollector()
	started := time.Now()

	exchanges, stats, err := a.loadCaptures(ctx, warns)
	if err != nil {
		return nil, err
	}

	// Auth detection reads the original header values; after sanitization
	// the bearer/basic distinction is gone.
	security := openapi.DetectSecurity(exchanges)

	sanitizer, err := a.newSanitizer()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizer.Apply(exchanges)
	a.log.Infof("sanitized %d exchanges (%d values redacted)", len(sanitized), sanitizer.Redactions().Total())

	if a.config.SanitizedHAR != "" {
		if err := capture.WriteFile(a.config.SanitizedHAR, sanitized); err != nil {
			return nil, err
		}
		a.log.Infof("sanitized HAR written to %s", a.config.SanitizedHAR)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := sanitized
	if a.config.APIOnly {
		candidates = capture.FilterAPI(sanitized)
		a.log.Infof("%d of %d exchanges look like API calls", len(candidates), len(sanitized))
	}
	stats.APICandidates = len(candidates)
	report.CollectExchangeStats(&stats, exchanges)

	templates := cluster.Cluster(candidates)
	endpoints := make([]openapi.Endpoint, 0, len(templates))
	for _, t := range templates {
		a.log.TemplateEvent(t.Method, t.Path, len(t.Exchanges))
		endpoints = append(endpoints, openapi.Endpoint{
			Template: t,
			Schemas:  cluster.InferSchemas(t, warns),
		})
	}
	stats.Templates = len(templates)
	stats.Operations = len(templates)

	doc := openapi.Build(endpoints, openapi.Options{
		Title:    a.config.Title,
		Version:  a.config.SpecVersion,
		Security: security,
	})

	result := &Result{
		Document:  doc,
		Endpoints: endpoints,
	}

	if a.config.SelfValidate {
		issues, err := validate.Document(doc)
		if err != nil {
			return nil, err
		}
		result.Issues = issues
		for _, issue := range issues {
			warns.Addf(errors.Validation, "", -1, "%s: %s", issue.Field, issue.Description)
		}
	}

	stats.Redactions = sanitizer.Redactions().Total()
	stats.Warnings = warns.Count()
	result.Report = a.buildReport(started, stats, templates, warns)

	if err := a.writeOutputs(result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadCaptures loads every configured capture in order, deduplicating exact
// repeats across files so merging several captures of the same session does
// not skew required-field inference. Within a single capture, repeated calls
// are evidence and are kept.
func (a *Analyzer) loadCaptures(ctx context.Context, warns *errors.Collector) ([]*capture.Exchange, report.Statistics, error) {
	var stats report.Statistics
	var all []*capture.Exchange

	var dedup *archive.Deduplicator
	if len(a.config.Captures) > 1 {
		dedup = archive.NewDeduplicator(4096)
	}

	for _, path := range a.config.Captures {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		exchanges, err := capture.Load(path, warns)
		if err != nil {
			return nil, stats, err
		}
		capLog := a.log.WithCapture(path)
		capLog.Infof("loaded %d entries", len(exchanges))
		stats.EntriesLoaded += len(exchanges)

		for _, ex := range exchanges {
			capLog.EntryEvent(logger.DebugLevel, ex.Method, ex.URL, ex.Status).Msg("Loaded entry")
			if dedup != nil && dedup.SeenBefore(ex) {
				stats.DuplicatesSkipped++
				capLog.WithEntry(ex.Index).Debug("Duplicate exchange skipped")
				continue
			}
			// Reassign global capture order so example selection stays
			// deterministic across merged files.
			c := ex.Clone()
			c.Index = len(all)
			all = append(all, c)
		}
	}

	return all, stats, nil
}

func (a *Analyzer) newSanitizer() (*sanitize.Sanitizer, error) {
	rules := a.config.Rules
	if rules == nil && a.config.RulesFile != "" {
		loaded, err := sanitize.LoadRuleSet(a.config.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return sanitize.New(rules, a.log)
}

func (a *Analyzer) buildReport(started time.Time, stats report.Statistics, templates []*cluster.Template, warns *errors.Collector) *report.RunReport {
	completed := time.Now()
	r := &report.RunReport{
		Captures:    a.config.Captures,
		StartedAt:   started,
		CompletedAt: completed,
		Duration:    completed.Sub(started),
		Statistics:  stats,
		Warnings:    warns.Warnings(),
	}
	for _, t := range templates {
		summary := report.TemplateSummary{
			Method: t.Method,
			Path:   t.Path,
			Calls:  len(t.Exchanges),
		}
		seen := make(map[int]bool)
		for _, ex := range t.Exchanges {
			if ex.Status > 0 && !seen[ex.Status] {
				seen[ex.Status] = true
				summary.Statuses = append(summary.Statuses, ex.Status)
			}
		}
		r.Templates = append(r.Templates, summary)
	}
	return r
}

func (a *Analyzer) writeOutputs(result *Result) error {
	format := openapi.Format(a.config.Output.Format)
	if a.config.Output.Format == "" && a.config.Output.FilePath != "" {
		format = openapi.FormatForPath(a.config.Output.FilePath)
	}

	if a.config.Output.FilePath != "" {
		if err := openapi.WriteFile(a.config.Output.FilePath, result.Document, format); err != nil {
			return err
		}
		a.log.Infof("OpenAPI document written to %s", a.config.Output.FilePath)
	} else {
		if err := openapi.Write(os.Stdout, result.Document, format); err != nil {
			return err
		}
	}

	if a.config.Report.FilePath != "" {
		if err := report.WriteFile(a.config.Report.FilePath, result.Report); err != nil {
			return err
		}
	}

	if a.config.Archive.Enabled {
		store, err := archive.Open(a.config.Archive.FilePath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer store.Close()

		rec := &archive.Record{
			SpecPath: a.config.Output.FilePath,
			Report:   result.Report,
		}
		if err := store.SaveRun(rec); err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
		a.log.Infof("run archived as %s", rec.ID)
	}

	return nil
}

// SanitizeFile runs Loader -> Sanitizer -> write over a single capture. In
// dry-run mode nothing is written and the summary reports what would have
// been redacted.
func (a *Analyzer) SanitizeFile(ctx context.Context, input, output string, dryRun bool) (*SanitizeResult, error) {
	warns := errors.NewCollector()

	exchanges, err := capture.Load(input, warns)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sanitizer, err := a.newSanitizer()
	if err != nil {
		return nil, err
	}
	sanitized := sanitizer.Apply(exchanges)

	if !dryRun {
		if err := capture.WriteFile(output, sanitized); err != nil {
			return nil, err
		}
		a.log.Infof("sanitized HAR written to %s", output)
	}

	return &SanitizeResult{
		Entries: len(sanitized),
		Summary: sanitizer.Redactions(),
		DryRun:  dryRun,
	}, nil
}
