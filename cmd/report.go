// File: cmd/report.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/internal/compliance"
	"github.com/xkilldash9x/patchreport/internal/config"
	"github.com/xkilldash9x/patchreport/internal/delivery"
	"github.com/xkilldash9x/patchreport/internal/observability"
	"github.com/xkilldash9x/patchreport/internal/reporting"
	"github.com/xkilldash9x/patchreport/internal/results"
	"github.com/xkilldash9x/patchreport/internal/source"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	pathColor = color.New(color.FgCyan)
)

// newReportCmd creates the `report` command.
func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Collect update compliance and write the Markdown and HTML report",
		Long: `Collects per-machine update states from the update server, aggregates
fleet statistics and writes <prefix>-<YYYYMMDD>.md and .html to the output
directory. When configured, the Markdown is posted to a chat webhook and the
HTML is emailed. Delivery failures are reported but do not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runReport(ctx, observability.GetLogger(), cfg, cmd.OutOrStdout())
		},
	}

	f := reportCmd.Flags()
	f.String("server", "", "update server host name")
	f.Int("port", 0, "update server port")
	f.Bool("tls", false, "connect to the update server over HTTPS")
	f.Bool("insecure", false, "skip TLS certificate verification")
	f.String("snapshot", "", "read machines from a YAML snapshot instead of the server")
	f.Int("concurrency", 0, "parallel per-machine fetches")
	f.StringP("group", "g", "", "limit the report to one computer group")
	f.StringP("output-dir", "o", "", "directory the report files are written to")
	f.String("prefix", "", "report file name prefix")
	f.Int("active-days", 0, "only list machines that synced within this many days (0 disables)")
	f.Int("top", 0, "number of machines in the detail table")
	f.Bool("preview", false, "render the report in the terminal")
	f.String("webhook-url", "", "chat webhook URL")
	f.String("email-from", "", "email sender address")
	f.String("email-to", "", "comma separated email recipients")
	f.String("email-subject", "", "email subject")
	f.String("smtp-host", "", "SMTP relay host")
	f.Int("smtp-port", 0, "SMTP relay port")

	return reportCmd
}

// runReport performs one report run. Collection and file errors fail the
// run; delivery errors are logged and printed only.
func runReport(ctx context.Context, logger *zap.Logger, cfg *config.Config, out io.Writer) error {
	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	if cfg.Source.Type == config.SourceTypeSnapshot {
		logger.Info("Reading snapshot", zap.String("file", cfg.Source.SnapshotFile))
	} else {
		logger.Info("Connecting to update server", zap.String("url", cfg.Source.BaseURL()))
	}
	src, err := source.New(cfg.Source, logger)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	pipeline := results.NewPipeline(
		compliance.NewCollector(src, cfg.Source.Concurrency, logger),
		results.Options{
			Group:      cfg.Report.Group,
			ScopeLabel: cfg.Report.ScopeLabel(),
			Window:     cfg.Report.ActivityWindow(),
			TopN:       cfg.Report.TopMachines,
		},
		logger,
	)
	res, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("report run failed: %w", err)
	}

	paths, err := reporting.WriteFiles(cfg.Report.OutputDir, cfg.Report.Prefix, res.Report)
	if err != nil {
		return err
	}
	logger.Info("Report written", zap.String("markdown", paths.Markdown), zap.String("html", paths.HTML))

	okColor.Fprintf(out, "Report generated for %s\n", cfg.Report.ScopeLabel())
	fmt.Fprintf(out, "  %s\n  %s\n", pathColor.Sprint(paths.Markdown), pathColor.Sprint(paths.HTML))
	if err := reporting.WriteSummaryTable(out, res.Summary, cfg.Report.ActivityWindow()); err != nil {
		return err
	}

	if cfg.Report.Preview {
		if err := reporting.Preview(out, res.Report.Markdown, "auto"); err != nil {
			logger.Warn("Preview failed", zap.Error(err))
		}
	}

	dispatcher := delivery.NewDispatcher(logger,
		delivery.NewWebhook(cfg.Webhook, logger),
		delivery.NewEmail(cfg.Email, logger),
	)
	if err := dispatcher.Deliver(ctx, res.Report); err != nil {
		warnColor.Fprintf(out, "Warning: report files were written but delivery failed:\n%v\n", err)
	}
	return nil
}
