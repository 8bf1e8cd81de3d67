package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/config"
	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/JonMunkholm/ledgeraudit/internal/logging"
	"github.com/JonMunkholm/ledgeraudit/internal/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultRunTimeout bounds a run when Options.RunTimeout is zero.
var DefaultRunTimeout = 10 * time.Minute

// Request names one audit run.
type Request struct {
	InputPath  string
	OutputPath string

	// Tolerance is the raw tolerance text. Blank uses the configured default.
	Tolerance string

	// RunID is generated when empty.
	RunID string
}

// Result describes a completed run.
type Result struct {
	RunID      string        `json:"run_id"`
	InputPath  string        `json:"-"`
	OutputPath string        `json:"-"`
	Format     string        `json:"format"`
	Rows       int           `json:"rows"`
	Flagged    int           `json:"flagged"`
	Tolerance  string        `json:"tolerance"`
	Stats      audit.Stats   `json:"stats"`
	Duration   time.Duration `json:"-"`
}

// Options configures a Service.
type Options struct {
	Params    audit.Params
	Ledger    ledger.Options
	Style     report.Style
	Assembler report.Assembler

	// Catalogue builds the procedure list for a run's parameters.
	// Defaults to audit.DefaultProcedures.
	Catalogue func(audit.Params) []audit.Procedure

	MaxConcurrent int
	MaxWait       time.Duration
	RunTimeout    time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// Service runs audits. It is safe for concurrent use.
type Service struct {
	opts    Options
	limiter *RunLimiter
	locks   *pathLocks
	logger  *slog.Logger
}

// NewService creates a Service from opts.
func NewService(opts Options) *Service {
	if opts.Catalogue == nil {
		opts.Catalogue = audit.DefaultProcedures
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = DefaultRunTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		opts:    opts,
		limiter: NewRunLimiter(opts.MaxConcurrent, opts.MaxWait),
		locks:   newPathLocks(),
		logger:  logger,
	}
}

// NewServiceFromConfig builds a Service from environment configuration and
// an optional report profile.
func NewServiceFromConfig(cfg *config.Config, profile *config.Profile, logger *slog.Logger) (*Service, error) {
	params, err := cfg.Audit.Params()
	if err != nil {
		return nil, fmt.Errorf("audit settings: %w", err)
	}
	ledgerOpts, err := cfg.Ledger.Options()
	if err != nil {
		return nil, fmt.Errorf("ledger settings: %w", err)
	}
	style, err := cfg.Report.Style()
	if err != nil {
		return nil, fmt.Errorf("report settings: %w", err)
	}

	return NewService(Options{
		Params:    profile.ApplyParams(params),
		Ledger:    ledgerOpts,
		Style:     profile.ApplyStyle(style),
		Assembler: cfg.Report.Assembler(),
		Catalogue: func(p audit.Params) []audit.Procedure {
			return profile.Apply(audit.DefaultProcedures(p))
		},
		MaxConcurrent: cfg.Audit.MaxConcurrent,
		MaxWait:       cfg.Audit.MaxWaitTime,
		RunTimeout:    cfg.Audit.RunTimeout,
		Logger:        logger,
	}), nil
}

// Procedures returns the catalogue for the default parameters.
func (s *Service) Procedures() []audit.Procedure {
	return s.opts.Catalogue(s.opts.Params)
}

// DefaultTolerance returns the tolerance used for blank tolerance text.
func (s *Service) DefaultTolerance() decimal.Decimal {
	return s.opts.Params.Tolerance
}

// LimiterStatus reports run slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until no run is in flight or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Run audits req.InputPath and writes the workbook to req.OutputPath.
//
// Input errors (tolerance, input format, destination type) are returned
// before the source is opened or anything is written.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	tolerance, format, err := s.checkRequest(req)
	if err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.Enrich(ctx, s.logger).With("input", filepath.Base(req.InputPath))
	if trigger := GetTriggerFromContext(ctx); trigger != "" {
		logger = logger.With("trigger", trigger)
	}
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		logger = logger.With("ip", ip)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("run slot unavailable", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	unlock, err := s.locks.lock(ctx, req.OutputPath)
	if err != nil {
		return nil, err
	}
	defer unlock()

	params := s.opts.Params
	params.Tolerance = tolerance
	procs := s.opts.Catalogue(params)

	logger.Debug("loading ledger", "format", format.String())
	ledgerOpts := s.opts.Ledger
	ledgerOpts.Logger = logger
	table, err := ledger.Load(req.InputPath, ledgerOpts)
	if err != nil {
		logger.Error("load failed", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	annotated := audit.Evaluate(table, params)
	stats := audit.Aggregate(annotated, procs)
	views := s.opts.Assembler.Assemble(annotated, procs)
	logger.Debug("evaluated ledger", "rows", table.Len(), "sheets", len(views))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	writer := report.NewWriter(s.opts.Style, logger)
	writer.Now = s.opts.Now
	meta := report.Meta{RunID: runID, Source: filepath.Base(req.InputPath)}
	if err := writer.WriteWorkbook(req.OutputPath, views, meta); err != nil {
		logger.Error("write failed", "output", req.OutputPath, "error", err)
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
		Format:     format.String(),
		Rows:       table.Len(),
		Flagged:    flaggedCount(annotated),
		Tolerance:  tolerance.String(),
		Stats:      stats,
		Duration:   time.Since(start),
	}

	attrs := []any{"rows", res.Rows, "flagged", res.Flagged, "duration_ms", res.Duration.Milliseconds()}
	for _, st := range stats {
		attrs = append(attrs, st.Key, st.Count)
	}
	logger.Info("audit completed", attrs...)

	return res, nil
}

// CheckRequest reports the input errors Run would return for req without
// touching the filesystem. Callers that must store the input first (uploads)
// use it to reject bad requests before writing anything.
func (s *Service) CheckRequest(req Request) error {
	_, _, err := s.checkRequest(req)
	return err
}

func (s *Service) checkRequest(req Request) (decimal.Decimal, ledger.Format, error) {
	tolerance, err := audit.ParseTolerance(req.Tolerance, s.opts.Params.Tolerance)
	if err != nil {
		return decimal.Zero, 0, err
	}
	format, err := ledger.DetectFormat(req.InputPath)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if err := checkOutputPath(req.OutputPath); err != nil {
		return decimal.Zero, 0, err
	}
	return tolerance, format, nil
}

func checkOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: no output path", ErrOutputFormat)
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fmt.Errorf("%w: %s", ErrOutputFormat, path)
	}
	return nil
}

func flaggedCount(a *audit.Annotated) int {
	n := 0
	for _, f := range a.Flags {
		if f.Any() {
			n++
		}
	}
	return n
}
