// Command auditor screens a ledger export and writes the audit workbook.
//
//	auditor -in Razao.xlsx [-out Razao_Auditado_Final.xlsx] [-tolerance 50000]
//
// The per-procedure counts are printed to stdout. Settings come from the
// environment (and a .env file) exactly as for the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/JonMunkholm/ledgeraudit/internal/config"
	"github.com/JonMunkholm/ledgeraudit/internal/core"
	"github.com/JonMunkholm/ledgeraudit/internal/logging"
	"github.com/joho/godotenv"
)

// Exit codes.
const (
	exitOK    = 0
	exitRun   = 1
	exitInput = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("auditor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "ledger export to audit (.csv, .txt, .xlsx, .xlsm, .xls)")
	out := fs.String("out", "", "workbook to write (default: REPORT_OUTPUT_NAME next to the input)")
	tolerance := fs.String("tolerance", "", "tolerable error (default: AUDIT_DEFAULT_TOLERANCE)")
	profilePath := fs.String("profile", "", "YAML report profile (default: REPORT_PROFILE)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return exitInput
	}
	if *in == "" {
		fmt.Fprintln(stderr, "auditor: -in is required")
		fs.Usage()
		return exitInput
	}

	// A missing .env is fine; existing environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "auditor: %v\n", err)
		return exitInput
	}
	logger := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)

	if *profilePath == "" {
		*profilePath = cfg.Report.ProfilePath
	}
	profile, err := config.LoadProfile(*profilePath)
	if err != nil {
		fmt.Fprintf(stderr, "auditor: %v\n", err)
		return exitInput
	}

	svc, err := core.NewServiceFromConfig(cfg, profile, logger)
	if err != nil {
		fmt.Fprintf(stderr, "auditor: %v\n", err)
		return exitInput
	}

	dest := *out
	if dest == "" {
		dest = filepath.Join(filepath.Dir(*in), cfg.Report.OutputName)
	}

	res, err := svc.Run(core.ContextWithTrigger(ctx, core.TriggerCLI), core.Request{
		InputPath:  *in,
		OutputPath: dest,
		Tolerance:  *tolerance,
	})
	if err != nil {
		fmt.Fprintf(stderr, "auditor: %s\n", core.FormatUserError(err))
		if core.IsUserFacing(err) {
			logger.Debug("run failed", "error", err)
		} else {
			logger.Error("run failed", "error", err)
		}
		if core.IsInputError(err) {
			return exitInput
		}
		return exitRun
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "auditor: %v\n", err)
			return exitRun
		}
		return exitOK
	}

	printResult(stdout, res)
	return exitOK
}

func printResult(w io.Writer, res *core.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCEDURE\tCOUNT")
	for _, st := range res.Stats {
		fmt.Fprintf(tw, "%s\t%d\n", st.Procedure, st.Count)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d entries, %d flagged, tolerance %s\n", res.Rows, res.Flagged, res.Tolerance)
	fmt.Fprintf(w, "report: %s\nrun id: %s\n", res.OutputPath, res.RunID)
}
