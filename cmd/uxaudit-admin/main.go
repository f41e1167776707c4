package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/target/uxaudit/internal/bootstrap"
	"github.com/target/uxaudit/internal/domain/model"
	"github.com/target/uxaudit/internal/domain/severity"
	"github.com/target/uxaudit/internal/surface"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

// adminConfig is read from the environment; flags override nothing here.
type adminConfig struct {
	APIURL       string        `env:"UXAUDIT_API_URL" envDefault:"http://localhost:5000"`
	Timeout      time.Duration `env:"UXAUDIT_ADMIN_TIMEOUT" envDefault:"30s"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config adminConfig
	Client *surface.Client
	Out    io.Writer
}

func main() {
	logger := bootstrap.InitLogger(nil)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	var cfg adminConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	client, err := surface.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.Timeout + time.Minute})
	if err != nil {
		logger.Error("create api client", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Client: client,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"audit": {
			name:        "audit",
			description: "Submit a screenshot for auditing and optionally wait for the result",
			run:         runAudit,
		},
		"latest": {
			name:        "latest",
			description: "Print the latest audit result",
			run:         runLatest,
		},
		"clear": {
			name:        "clear",
			description: "Clear the stored latest audit result",
			run:         runClear,
		},
		"audits": {
			name:        "audits",
			description: "List audits known to the running service",
			run:         runAudits,
		},
		"report": {
			name:        "report",
			description: "Download the latest result as an HTML or PDF report",
			run:         runReport,
		},
		"watch": {
			name:        "watch",
			description: "Poll the latest result and print each change",
			run:         runWatch,
		},
		"notifications": {
			name:        "notifications",
			description: "List visible notifications",
			run:         runNotifications,
		},
		"view": {
			name:        "view",
			description: "Press a completion notification button (View Results or Dismiss)",
			run:         runView,
		},
		"focus": {
			name:        "focus",
			description: "Wait for a results surface focus request",
			run:         runFocus,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: uxaudit-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, commands()[name].description); err != nil {
			return err
		}
	}
	return nil
}

type auditOptions struct {
	File  string
	URL   string
	Title string
	Wait  bool
}

func parseAuditFlags(args []string) (auditOptions, error) {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts auditOptions
	fs.StringVar(&opts.File, "file", "", "Screenshot image to audit (required)")
	fs.StringVar(&opts.URL, "url", "", "Page URL the screenshot was taken from")
	fs.StringVar(&opts.Title, "title", "", "Page title")
	fs.BoolVar(&opts.Wait, "wait", false, "Wait for the audit to finish and print the result")

	if err := fs.Parse(args); err != nil {
		return auditOptions{}, err
	}
	opts.File = strings.TrimSpace(opts.File)
	if opts.File == "" {
		return auditOptions{}, errors.New("--file is required")
	}
	return opts, nil
}

// imageDataURL encodes raw image bytes as a base64 data URL.
func imageDataURL(raw []byte) (string, error) {
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("file is not an image (detected %s)", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func runAudit(cmdCtx *commandContext, args []string) error {
	opts, err := parseAuditFlags(args)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("read screenshot: %w", err)
	}
	image, err := imageDataURL(raw)
	if err != nil {
		return err
	}

	ack, err := cmdCtx.Client.StartAudit(cmdCtx.Ctx, model.StartAuditRequest{
		ImageData: image,
		PageURL:   opts.URL,
		PageTitle: opts.Title,
	})
	if err != nil {
		return err
	}
	if err := writef(cmdCtx.Out, "%s (id %s)\n", ack.Message, ack.ID); err != nil {
		return err
	}
	if !opts.Wait {
		return nil
	}

	audit, err := waitForAudit(cmdCtx, ack.ID)
	if err != nil {
		return err
	}
	if audit.Status == model.AuditStatusFailed {
		return fmt.Errorf("audit %s failed: %s", audit.ID, audit.Error)
	}
	return printResult(cmdCtx.Out, &model.LatestResult{
		Result:    audit.ResultText,
		ID:        audit.ID,
		PageURL:   audit.PageURL,
		PageTitle: audit.PageTitle,
		Timestamp: completedMillis(audit),
	})
}

func completedMillis(a model.Audit) int64 {
	if a.CompletedAt == nil {
		return 0
	}
	return a.CompletedAt.UnixMilli()
}

// waitForAudit polls the audit record until it leaves the pending state.
func waitForAudit(cmdCtx *commandContext, id string) (model.Audit, error) {
	ticker := time.NewTicker(cmdCtx.Config.PollInterval)
	defer ticker.Stop()
	for {
		audit, err := cmdCtx.Client.Audit(cmdCtx.Ctx, id)
		if err != nil {
			return model.Audit{}, err
		}
		if audit.Status != model.AuditStatusPending {
			return audit, nil
		}
		select {
		case <-cmdCtx.Ctx.Done():
			return model.Audit{}, cmdCtx.Ctx.Err()
		case <-ticker.C:
		}
	}
}

func runLatest(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("latest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	rawJSON := fs.Bool("json", false, "Print the raw JSON record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := cmdCtx.Client.LatestResult(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if *rawJSON {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(model.LatestResultResponse{Result: result})
	}
	return printResult(cmdCtx.Out, result)
}

func printResult(w io.Writer, result *model.LatestResult) error {
	if result == nil {
		return writeln(w, "No audit result stored.")
	}
	if err := writef(w, "\nAudit:     %s\n", result.ID); err != nil {
		return err
	}
	if err := writef(w, "Page:      %s\n", pageLabel(result.PageTitle, result.PageURL)); err != nil {
		return err
	}
	if result.Timestamp > 0 {
		if err := writef(w, "Completed: %s\n", result.CompletedAt().UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := writef(w, "Summary:   %s\n\n", severity.Headline(severity.Count(result.Result))); err != nil {
		return err
	}
	return writeln(w, result.Result)
}

func pageLabel(title, url string) string {
	switch {
	case title != "" && url != "":
		return title + " (" + url + ")"
	case title != "":
		return title
	case url != "":
		return url
	default:
		return "-"
	}
}

func runClear(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to clear without --yes")
	}
	if err := cmdCtx.Client.ClearResult(cmdCtx.Ctx); err != nil {
		return err
	}
	return writeln(cmdCtx.Out, "Latest audit result cleared.")
}

func runAudits(cmdCtx *commandContext, _ []string) error {
	audits, err := cmdCtx.Client.Audits(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return printAudits(cmdCtx.Out, audits)
}

func printAudits(w io.Writer, audits []model.Audit) error {
	if len(audits) == 0 {
		return writeln(w, "No audits.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tSTATUS\tCREATED\tPAGE\n"); err != nil {
		return err
	}
	for _, a := range audits {
		if err := writef(tw, "%s\t%s\t%s\t%s\n",
			a.ID, a.Status, a.CreatedAt.UTC().Format(time.RFC3339), pageLabel(a.PageTitle, a.PageURL)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type reportOptions struct {
	Format string
	Out    string
}

func parseReportFlags(args []string) (reportOptions, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts reportOptions
	fs.StringVar(&opts.Format, "format", "pdf", "Report format: html or pdf")
	fs.StringVar(&opts.Out, "out", "", "Output path (defaults to the server-suggested filename)")
	if err := fs.Parse(args); err != nil {
		return reportOptions{}, err
	}
	opts.Format = strings.ToLower(strings.TrimSpace(opts.Format))
	if opts.Format != "html" && opts.Format != "pdf" {
		return reportOptions{}, fmt.Errorf("unsupported --format %q (valid: html, pdf)", opts.Format)
	}
	return opts, nil
}

func runReport(cmdCtx *commandContext, args []string) error {
	opts, err := parseReportFlags(args)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(".", "uxaudit-report-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	filename, err := cmdCtx.Client.Report(cmdCtx.Ctx, opts.Format, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	dest := opts.Out
	if dest == "" {
		dest = filename
	}
	if dest == "" {
		dest = "UI-UX-Audit-" + time.Now().UTC().Format(time.DateOnly) + "." + opts.Format
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return writef(cmdCtx.Out, "Report written to %s\n", dest)
}

func runWatch(cmdCtx *commandContext, _ []string) error {
	poller := surface.NewPoller(cmdCtx.Client, cmdCtx.Config.PollInterval, cmdCtx.Logger)
	return poller.Run(cmdCtx.Ctx, func(result *model.LatestResult) {
		if err := printWatchLine(cmdCtx.Out, result, time.Now()); err != nil {
			cmdCtx.Logger.Warn("write watch line failed", "error", err)
		}
	})
}

func printWatchLine(w io.Writer, result *model.LatestResult, now time.Time) error {
	stamp := now.UTC().Format(time.TimeOnly)
	if result == nil {
		return writef(w, "[%s] result cleared\n", stamp)
	}
	return writef(w, "[%s] %s: %s\n", stamp, pageLabel(result.PageTitle, result.PageURL),
		severity.Headline(severity.Count(result.Result)))
}

func runNotifications(cmdCtx *commandContext, _ []string) error {
	list, err := cmdCtx.Client.Notifications(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	return printNotifications(cmdCtx.Out, list)
}

func printNotifications(w io.Writer, list []model.Notification) error {
	if len(list) == 0 {
		return writeln(w, "No visible notifications.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tKIND\tTITLE\tMESSAGE\tBUTTONS\n"); err != nil {
		return err
	}
	for _, n := range list {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, n.Kind, n.Title, n.Message, strings.Join(n.Buttons, " | ")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type viewOptions struct {
	ID      string
	Dismiss bool
}

func parseViewFlags(args []string) (viewOptions, error) {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts viewOptions
	fs.StringVar(&opts.ID, "id", "", "Notification ID (required)")
	fs.BoolVar(&opts.Dismiss, "dismiss", false, "Press Dismiss instead of View Results")
	if err := fs.Parse(args); err != nil {
		return viewOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return viewOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func runView(cmdCtx *commandContext, args []string) error {
	opts, err := parseViewFlags(args)
	if err != nil {
		return err
	}
	index := 0
	if opts.Dismiss {
		index = 1
	}
	resp, err := cmdCtx.Client.PressButton(cmdCtx.Ctx, opts.ID, index)
	if err != nil {
		return err
	}
	if resp.Focused {
		return writeln(cmdCtx.Out, "Results surface asked to come forward.")
	}
	return writeln(cmdCtx.Out, "Notification dismissed.")
}

func runFocus(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("focus", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	wait := fs.Duration("wait", 25*time.Second, "Long-poll wait")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for {
		resp, err := cmdCtx.Client.AwaitFocus(cmdCtx.Ctx, *wait)
		if err != nil {
			if cmdCtx.Ctx.Err() != nil {
				return nil
			}
			return err
		}
		if resp != nil {
			return writef(cmdCtx.Out, "Focus requested for audit %s at %s\n",
				resp.AuditID, resp.RequestedAt.UTC().Format(time.RFC3339))
		}
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
