package analyzer

import (
	"github.com/PentesterFlow/harspec/internal/logger"
	"github.com/PentesterFlow/harspec/internal/sanitize"
)

// Option is a functional option for configuring the Analyzer.
type Option func(*Analyzer) error

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(a *Analyzer) error {
		a.config = config
		return nil
	}
}

// WithCaptures sets the capture files to analyze.
func WithCaptures(paths ...string) Option {
	return func(a *Analyzer) error {
		a.config.Captures = append(a.config.Captures, paths...)
		return nil
	}
}

// WithOutputFile sets the OpenAPI output file path.
func WithOutputFile(path string) Option {
	return func(a *Analyzer) error {
		a.config.Output.FilePath = path
		return nil
	}
}

// WithFormat sets the OpenAPI output format (yaml or json).
func WithFormat(format string) Option {
	return func(a *Analyzer) error {
		a.config.Output.Format = format
		return nil
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(a *Analyzer) error {
		a.config.Title = title
		return nil
	}
}

// WithAPIOnly enables/disables API candidate filtering.
func WithAPIOnly(enabled bool) Option {
	return func(a *Analyzer) error {
		a.config.APIOnly = enabled
		return nil
	}
}

// WithRules sets an explicit sanitization rule set.
func WithRules(rules *sanitize.RuleSet) Option {
	return func(a *Analyzer) error {
		a.config.Rules = rules
		return nil
	}
}

// WithRulesFile sets a sanitization rules file to overlay on the defaults.
func WithRulesFile(path string) Option {
	return func(a *Analyzer) error {
		a.config.RulesFile = path
		return nil
	}
}

// WithSanitizedHAR sets the sanitized HAR output path.
func WithSanitizedHAR(path string) Option {
	return func(a *Analyzer) error {
		a.config.SanitizedHAR = path
		return nil
	}
}

// WithReportFile sets the run report output path.
func WithReportFile(path string) Option {
	return func(a *Analyzer) error {
		a.config.Report.FilePath = path
		return nil
	}
}

// WithArchive enables run archiving to the given database file.
func WithArchive(path string) Option {
	return func(a *Analyzer) error {
		a.config.Archive.Enabled = true
		a.config.Archive.FilePath = path
		return nil
	}
}

// WithSelfValidation enables/disables the post-emit structural self-check.
func WithSelfValidation(enabled bool) Option {
	return func(a *Analyzer) error {
		a.config.SelfValidate = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Analyzer) error {
		a.log = l
		return nil
	}
}

// WithVerbose enables/disables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(a *Analyzer) error {
		a.config.Verbose = verbose
		return nil
	}
}

// WithDebug enables/disables debug mode.
func WithDebug(debug bool) Option {
	return func(a *Analyzer) error {
		a.config.Debug = debug
		return nil
	}
}
