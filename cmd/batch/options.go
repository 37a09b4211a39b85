package main

import (
	"flag"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/gcci/certgen/internal/infrastructure/config"
	"github.com/gcci/certgen/internal/infrastructure/generator"
)

// Run modes
const (
	modeCSV       = "csv"
	modeSynthetic = "synthetic"
)

// localRenderURL renders in-process instead of calling a server.
const localRenderURL = "local"

// preset holds the defaults of one run mode.
type preset struct {
	input       string
	count       int
	policy      batch.RetryPolicy
	recordDelay time.Duration
	reports     bool
	pdfDir      string
	reportDir   string
}

func presetFor(mode string) (preset, error) {
	switch mode {
	case modeCSV:
		return preset{
			input:       "gcci_dummy_input_data.csv",
			policy:      batch.CSVPolicy(),
			recordDelay: 2 * time.Second,
			reports:     true,
			pdfDir:      "gcci_pdfs_from_csv_input",
			reportDir:   "gcci_csv_reports_from_csv_input",
		}, nil
	case modeSynthetic:
		return preset{
			count:       generator.DefaultCount,
			policy:      batch.SyntheticPolicy(),
			recordDelay: 5 * time.Second,
			pdfDir:      "rendered_gcci_pdfs",
		}, nil
	}
	return preset{}, fmt.Errorf("unknown mode %q (want csv or synthetic)", mode)
}

// cliFlags are the command line values. Only flags the user actually
// passed override the config file.
type cliFlags struct {
	configPath  string
	mode        string
	input       string
	delimiter   string
	count       int
	seed        uint64
	renderURL   string
	maxAttempts int
	retryDelay  time.Duration
	backoff     string
	recordDelay time.Duration
	pdfDir      string
	reportDir   string
	noReports   bool
	metricsAddr string
	set         map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*cliFlags, error) {
	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to a TOML config file")
	fs.StringVar(&f.mode, "mode", modeCSV, "record source: csv or synthetic")
	fs.StringVar(&f.input, "input", "", "CSV input file (csv mode)")
	fs.StringVar(&f.delimiter, "delimiter", ",", "CSV field delimiter")
	fs.IntVar(&f.count, "count", 0, "number of synthetic records (synthetic mode)")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed for synthetic data and report scores; 0 is random")
	fs.StringVar(&f.renderURL, "render-url", "", `render endpoint URL, or "local" to render in-process`)
	fs.IntVar(&f.maxAttempts, "max-attempts", 0, "attempts per record; 0 retries forever")
	fs.DurationVar(&f.retryDelay, "retry-delay", 0, "wait between attempts")
	fs.StringVar(&f.backoff, "backoff", "", "retry backoff: fixed or exponential")
	fs.DurationVar(&f.recordDelay, "record-delay", 0, "wait between records")
	fs.StringVar(&f.pdfDir, "pdf-dir", "", "directory (or S3 prefix) for rendered PDFs")
	fs.StringVar(&f.reportDir, "report-dir", "", "directory (or S3 prefix) for reports")
	fs.BoolVar(&f.noReports, "no-reports", false, "disable per-record reports")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// options is the fully resolved run configuration.
type options struct {
	mode           string
	input          string
	delimiter      rune
	count          int
	seed           uint64
	renderURL      string
	requestTimeout time.Duration
	policy         batch.RetryPolicy
	recordDelay    time.Duration
	breaker        batch.BreakerConfig
	reports        bool
	pdfDir         string
	reportDir      string
	metricsAddr    string
}

// resolveOptions layers the mode preset, then the config file, then
// explicit flags.
func resolveOptions(cfg *config.Config, f *cliFlags) (*options, error) {
	mode := cfg.Batch.Mode
	if f.set["mode"] || mode == "" {
		mode = f.mode
	}
	p, err := presetFor(mode)
	if err != nil {
		return nil, err
	}

	bc := cfg.Batch
	o := &options{
		mode:           mode,
		input:          p.input,
		count:          p.count,
		seed:           uint64(bc.Seed),
		renderURL:      bc.RenderURL,
		requestTimeout: bc.RequestTimeout,
		policy:         p.policy,
		recordDelay:    p.recordDelay,
		breaker:        batch.BreakerConfig{Threshold: bc.BreakerThreshold, Cooldown: bc.BreakerCooldown},
		reports:        p.reports,
		pdfDir:         p.pdfDir,
		reportDir:      p.reportDir,
		metricsAddr:    bc.MetricsAddr,
	}

	delimiter := bc.Delimiter
	if bc.Input != "" {
		o.input = bc.Input
	}
	if bc.Count > 0 {
		o.count = bc.Count
	}
	if bc.MaxAttempts != nil {
		o.policy.MaxAttempts = *bc.MaxAttempts
	}
	if bc.RetryDelay != nil {
		o.policy.Delay = *bc.RetryDelay
	}
	if bc.Backoff != "" {
		o.policy.Backoff = bc.Backoff
	}
	o.policy.Multiplier = bc.BackoffMultiplier
	o.policy.MaxDelay = bc.BackoffMaxDelay
	o.policy.Jitter = bc.BackoffJitter
	if bc.RecordDelay != nil {
		o.recordDelay = *bc.RecordDelay
	}
	if bc.Reports != nil {
		o.reports = *bc.Reports
	}
	if cfg.Storage.PDFDir != "" {
		o.pdfDir = cfg.Storage.PDFDir
	}
	if cfg.Storage.ReportDir != "" {
		o.reportDir = cfg.Storage.ReportDir
	}

	if f.set["input"] {
		o.input = f.input
	}
	if f.set["delimiter"] {
		delimiter = f.delimiter
	}
	if f.set["count"] {
		o.count = f.count
	}
	if f.set["seed"] {
		o.seed = f.seed
	}
	if f.set["render-url"] {
		o.renderURL = f.renderURL
	}
	if f.set["max-attempts"] {
		o.policy.MaxAttempts = f.maxAttempts
	}
	if f.set["retry-delay"] {
		o.policy.Delay = f.retryDelay
	}
	if f.set["backoff"] {
		o.policy.Backoff = f.backoff
	}
	if f.set["record-delay"] {
		o.recordDelay = f.recordDelay
	}
	if f.set["pdf-dir"] {
		o.pdfDir = f.pdfDir
	}
	if f.set["report-dir"] {
		o.reportDir = f.reportDir
	}
	if f.set["no-reports"] && f.noReports {
		o.reports = false
	}
	if f.set["metrics-addr"] {
		o.metricsAddr = f.metricsAddr
	}

	if utf8.RuneCountInString(delimiter) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}
	o.delimiter, _ = utf8.DecodeRuneInString(delimiter)

	if o.mode == modeCSV && o.input == "" {
		return nil, fmt.Errorf("csv mode requires an input file")
	}
	if o.renderURL == "" {
		return nil, fmt.Errorf("render URL is required")
	}
	if err := o.policy.Validate(); err != nil {
		return nil, err
	}
	if o.recordDelay < 0 {
		return nil, fmt.Errorf("record delay cannot be negative")
	}
	return o, nil
}
