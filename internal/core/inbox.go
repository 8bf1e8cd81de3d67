package core

// inbox.go audits ledger files dropped into a folder on a cron schedule.
//
// Each scan picks up the regular files in the inbox directory, runs them
// one by one through Service.Run and moves the source into processed/ or
// failed/ below the inbox. A failed source gets a "<name>.error.txt" note
// beside it with the coded user message. Scans never overlap.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/ledgeraudit/internal/ledger"
	"github.com/robfig/cron/v3"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// DefaultSettleTime skips files modified more recently than this, so a
// file still being copied in is picked up on a later scan.
const DefaultSettleTime = 2 * time.Second

// InboxOptions configures an Inbox.
type InboxOptions struct {
	Dir       string
	OutputDir string

	// Schedule is a standard cron spec or descriptor such as "@every 1m".
	Schedule string

	// Tolerance text passed to every run. Blank uses the service default.
	Tolerance string

	// OutputName is appended to the source stem to name each report.
	OutputName string

	SettleTime time.Duration
	Logger     *slog.Logger
}

// ScanReport lists what one scan did, by source file name.
type ScanReport struct {
	Processed []string
	Failed    []string
}

// Inbox is the drop-folder scheduler.
type Inbox struct {
	svc    *Service
	opts   InboxOptions
	logger *slog.Logger
	cron   *cron.Cron
	now    func() time.Time
}

// NewInbox creates an Inbox for svc. Start schedules it.
func NewInbox(svc *Service, opts InboxOptions) *Inbox {
	if opts.SettleTime < 0 {
		opts.SettleTime = 0
	}
	if opts.OutputName == "" {
		opts.OutputName = "auditado.xlsx"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "inbox")

	return &Inbox{svc: svc, opts: opts, logger: logger, now: time.Now}
}

// Start prepares the folders and schedules scans. Scans run with ctx and
// stop being scheduled once Stop is called.
func (in *Inbox) Start(ctx context.Context) error {
	if err := in.prepare(); err != nil {
		return err
	}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(in.logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(in.opts.Schedule, func() { in.Scan(ctx) }); err != nil {
		return fmt.Errorf("inbox schedule %q: %w", in.opts.Schedule, err)
	}

	in.cron = c
	c.Start()
	in.logger.Info("inbox scheduler started",
		"dir", in.opts.Dir,
		"output_dir", in.opts.OutputDir,
		"schedule", in.opts.Schedule,
	)
	return nil
}

// Stop unschedules scans and returns a context that is done when a scan in
// progress has finished.
func (in *Inbox) Stop() context.Context {
	if in.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	in.logger.Info("inbox scheduler stopping")
	return in.cron.Stop()
}

func (in *Inbox) prepare() error {
	dirs := []string{
		in.opts.Dir,
		in.opts.OutputDir,
		filepath.Join(in.opts.Dir, processedDir),
		filepath.Join(in.opts.Dir, failedDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %s: %w", d, err)
		}
	}
	return nil
}

// Scan audits every settled file currently in the inbox.
func (in *Inbox) Scan(ctx context.Context) ScanReport {
	var rep ScanReport

	if err := in.prepare(); err != nil {
		in.logger.Error("inbox unavailable", "error", err)
		return rep
	}

	names, err := in.pending()
	if err != nil {
		in.logger.Error("list inbox failed", "dir", in.opts.Dir, "error", err)
		return rep
	}
	if len(names) == 0 {
		return rep
	}
	in.logger.Debug("inbox scan", "files", len(names))

	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		if in.process(ctx, name) {
			rep.Processed = append(rep.Processed, name)
		} else {
			rep.Failed = append(rep.Failed, name)
		}
	}

	in.logger.Info("inbox scan completed", "processed", len(rep.Processed), "failed", len(rep.Failed))
	return rep
}

// pending lists settled regular files, oldest name first.
func (in *Inbox) pending() ([]string, error) {
	entries, err := os.ReadDir(in.opts.Dir)
	if err != nil {
		return nil, err
	}

	cutoff := in.now().Add(-in.opts.SettleTime)
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if in.opts.SettleTime > 0 && info.ModTime().After(cutoff) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (in *Inbox) process(ctx context.Context, name string) bool {
	src := filepath.Join(in.opts.Dir, name)
	logger := in.logger.With("file", name)

	var err error
	if _, err = ledger.DetectFormat(src); err == nil {
		var res *Result
		res, err = in.svc.Run(ContextWithTrigger(ctx, TriggerInbox), Request{
			InputPath:  src,
			OutputPath: filepath.Join(in.opts.OutputDir, in.outputName(name)),
			Tolerance:  in.opts.Tolerance,
		})
		if err == nil {
			if mvErr := in.move(src, processedDir); mvErr != nil {
				logger.Error("move to processed failed", "error", mvErr)
			}
			logger.Info("inbox file audited", "run_id", res.RunID, "output", res.OutputPath)
			return true
		}
	}

	// A cancelled run leaves the source in place for the next scan.
	if ctx.Err() != nil {
		logger.Warn("inbox run interrupted", "error", err)
		return false
	}

	logger.Warn("inbox file failed", "code", MapError(err).Code, "error", err)
	dest, mvErr := in.moveTo(src, failedDir)
	if mvErr != nil {
		logger.Error("move to failed failed", "error", mvErr)
		return false
	}
	note := dest + ".error.txt"
	body := FormatUserError(err) + "\n" + err.Error() + "\n"
	if werr := os.WriteFile(note, []byte(body), 0o644); werr != nil {
		logger.Error("write error note failed", "error", werr)
	}
	return false
}

func (in *Inbox) outputName(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return stem + "_" + in.opts.OutputName
}

func (in *Inbox) move(src, sub string) error {
	_, err := in.moveTo(src, sub)
	return err
}

// moveTo renames src into the sub directory, suffixing a timestamp when a
// file of that name is already there.
func (in *Inbox) moveTo(src, sub string) (string, error) {
	name := filepath.Base(src)
	dest := filepath.Join(in.opts.Dir, sub, name)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(name)
		stamp := in.now().Format("20060102-150405")
		dest = filepath.Join(in.opts.Dir, sub, strings.TrimSuffix(name, ext)+"-"+stamp+ext)
	}
	if err := os.Rename(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}
