package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/harspec/internal/archive"
	"github.com/PentesterFlow/harspec/internal/validate"
	"github.com/PentesterFlow/harspec/pkg/analyzer"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	// Analyze flags
	outputFile   string
	outputFormat string
	title        string
	specVersion  string
	allEntries   bool
	rulesFile    string
	sanitizedHAR string
	reportFile   string
	archiveFile  string
	noValidate   bool

	// Sanitize flags
	sanitizeOutput string
	dryRun         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "harspec",
		Short: "harspec - OpenAPI inference from HAR captures",
		Long: `harspec - Infer OpenAPI 3.0 specifications from HAR traffic captures.

Loads browser or proxy captures, clusters requests into endpoint templates,
infers parameter and body schemas from observed traffic, and emits a draft
OpenAPI document. Sensitive values are sanitized before anything is written.`,
		Version: version,
	}

	// Analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze [capture...]",
		Short: "Analyze HAR captures and emit an OpenAPI document",
		Long:  "Analyze one or more HAR captures and emit an inferred OpenAPI 3.0 document.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}

	// Sanitize command
	sanitizeCmd := &cobra.Command{
		Use:   "sanitize [capture]",
		Short: "Sanitize a HAR capture",
		Long:  "Redact sensitive values from a HAR capture and write a shareable copy.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSanitize,
	}

	// Validate command
	validateCmd := &cobra.Command{
		Use:   "validate [spec]",
		Short: "Validate an OpenAPI document",
		Long:  "Check an OpenAPI 3.0 file (YAML or JSON) against the structural schema.",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	// Status command
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show archived runs",
		Long:  "List analysis runs recorded in the archive database.",
		RunE:  runStatus,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")

	// Analyze flags
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: yaml or json (default: from extension)")
	analyzeCmd.Flags().StringVarP(&title, "title", "t", "", "Document title")
	analyzeCmd.Flags().StringVar(&specVersion, "spec-version", "", "Document info.version")
	analyzeCmd.Flags().BoolVar(&allEntries, "all", false, "Keep all entries instead of API candidates only")
	analyzeCmd.Flags().StringVar(&rulesFile, "rules", "", "Sanitization rules file overlaid on the defaults")
	analyzeCmd.Flags().StringVar(&sanitizedHAR, "sanitized-har", "", "Also write the sanitized capture to this path")
	analyzeCmd.Flags().StringVar(&reportFile, "report", "", "Write a JSON run report to this path")
	analyzeCmd.Flags().StringVar(&archiveFile, "archive", "", "Record the run in this archive database")
	analyzeCmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip the structural self-check of the emitted document")

	// Sanitize flags
	sanitizeCmd.Flags().StringVarP(&sanitizeOutput, "output", "o", "", "Sanitized HAR output path")
	sanitizeCmd.Flags().StringVar(&rulesFile, "rules", "", "Sanitization rules file overlaid on the defaults")
	sanitizeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be redacted without writing")

	// Status flags
	statusCmd.Flags().StringVar(&archiveFile, "archive", "", "Archive database to read")
	statusCmd.MarkFlagRequired("archive")

	// Add commands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(sanitizeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	config := analyzer.DefaultConfig()

	// Load config file first; command-line flags take precedence
	if configFile != "" {
		fileConfig, err := analyzer.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	config.Captures = append(config.Captures, args...)

	if cmd.Flags().Changed("output") {
		config.Output.FilePath = outputFile
	}
	if cmd.Flags().Changed("format") {
		config.Output.Format = outputFormat
	}
	if cmd.Flags().Changed("title") {
		config.Title = title
	}
	if cmd.Flags().Changed("spec-version") {
		config.SpecVersion = specVersion
	}
	if cmd.Flags().Changed("all") {
		config.APIOnly = !allEntries
	}
	if cmd.Flags().Changed("rules") {
		config.RulesFile = rulesFile
	}
	if cmd.Flags().Changed("sanitized-har") {
		config.SanitizedHAR = sanitizedHAR
	}
	if cmd.Flags().Changed("report") {
		config.Report.FilePath = reportFile
	}
	if cmd.Flags().Changed("archive") {
		config.Archive.Enabled = true
		config.Archive.FilePath = archiveFile
	}
	if noValidate {
		config.SelfValidate = false
	}
	config.Verbose = verbose
	config.Debug = debug

	a, err := analyzer.New(analyzer.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := a.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	// The document itself goes to stdout when no output file is set, so the
	// summary always goes to stderr.
	printSummary(os.Stderr, result)
	if len(result.Issues) > 0 {
		return fmt.Errorf("emitted document failed structural validation with %d issues", len(result.Issues))
	}
	return nil
}

func runSanitize(cmd *cobra.Command, args []string) error {
	input := args[0]

	if sanitizeOutput == "" && !dryRun {
		return fmt.Errorf("either --output or --dry-run is required")
	}

	a, err := analyzer.New(
		analyzer.WithRulesFile(rulesFile),
		analyzer.WithVerbose(verbose),
		analyzer.WithDebug(debug),
	)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := a.SanitizeFile(ctx, input, sanitizeOutput, dryRun)
	if err != nil {
		return fmt.Errorf("sanitize failed: %w", err)
	}

	if result.DryRun {
		fmt.Println("Dry run, nothing written")
	}
	fmt.Printf("Entries:  %d\n", result.Entries)
	fmt.Printf("Redacted: %d\n", result.Summary.Redacted)
	fmt.Printf("Dropped:  %d\n", result.Summary.Dropped)
	fmt.Printf("Hashed:   %d\n", result.Summary.Hashed)
	if len(result.Summary.ByPlace) > 0 {
		places := make([]string, 0, len(result.Summary.ByPlace))
		for place := range result.Summary.ByPlace {
			places = append(places, place)
		}
		sort.Strings(places)
		fmt.Println("By location:")
		for _, place := range places {
			fmt.Printf("  %-16s %d\n", place, result.Summary.ByPlace[place])
		}
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	issues, err := validate.File(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if len(issues) == 0 {
		fmt.Printf("%s: valid\n", path)
		return nil
	}

	fmt.Printf("%s: %d issues\n", path, len(issues))
	for _, issue := range issues {
		fmt.Printf("  %s: %s\n", issue.Field, issue.Description)
	}
	return fmt.Errorf("document is not structurally valid")
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := archive.Open(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs")
		return nil
	}

	fmt.Printf("%d archived runs:\n\n", len(runs))
	for _, rec := range runs {
		fmt.Printf("%s  %s\n", rec.CreatedAt.Format(time.RFC3339), rec.ID)
		if rec.SpecPath != "" {
			fmt.Printf("  Spec:      %s\n", rec.SpecPath)
		}
		if rec.Report != nil {
			stats := rec.Report.Statistics
			fmt.Printf("  Captures:  %d\n", len(rec.Report.Captures))
			fmt.Printf("  Entries:   %d\n", stats.EntriesLoaded)
			fmt.Printf("  Templates: %d\n", stats.Templates)
			fmt.Printf("  Warnings:  %d\n", stats.Warnings)
		}
		fmt.Println()
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
		cancel()
	}()

	return ctx, cancel
}

func printSummary(w *os.File, result *analyzer.Result) {
	r := result.Report
	if r == nil {
		return
	}
	stats := r.Statistics

	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                      Analysis Summary                        ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Duration:           %v\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Entries Loaded:     %d\n", stats.EntriesLoaded)
	fmt.Fprintf(w, "API Candidates:     %d\n", stats.APICandidates)
	if stats.DuplicatesSkipped > 0 {
		fmt.Fprintf(w, "Duplicates Skipped: %d\n", stats.DuplicatesSkipped)
	}
	fmt.Fprintf(w, "Endpoint Templates: %d\n", stats.Templates)
	fmt.Fprintf(w, "Values Redacted:    %d\n", stats.Redactions)
	fmt.Fprintf(w, "Warnings:           %d\n", stats.Warnings)
	fmt.Fprintln(w)

	if len(r.Templates) > 0 {
		fmt.Fprintln(w, "Endpoints:")
		count := 15
		if len(r.Templates) < count {
			count = len(r.Templates)
		}
		for i := 0; i < count; i++ {
			t := r.Templates[i]
			fmt.Fprintf(w, "  [%s] %s (%d calls)\n", t.Method, t.Path, t.Calls)
		}
		if len(r.Templates) > count {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Templates)-count)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		count := 10
		if len(r.Warnings) < count {
			count = len(r.Warnings)
		}
		for i := 0; i < count; i++ {
			warn := r.Warnings[i]
			fmt.Fprintf(w, "  [%s] %s\n", warn.Type.String(), warn.Message)
		}
		if len(r.Warnings) > count {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Warnings)-count)
		}
		fmt.Fprintln(w)
	}
}
