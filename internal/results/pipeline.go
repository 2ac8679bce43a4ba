// File: internal/results/pipeline.go
package results

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/compliance"
	"github.com/xkilldash9x/patchreport/internal/reporting"
)

// Options configures one report run.
type Options struct {
	// Group is the group filter passed to the source; empty means all machines.
	Group string
	// ScopeLabel is the human-readable scope printed in the report.
	ScopeLabel string
	Window     time.Duration
	TopN       int
}

// Result carries everything a run produced.
type Result struct {
	Rows    []schemas.ComplianceRow
	Summary schemas.FleetSummary
	Report  *schemas.Report
}

// Pipeline runs collection, aggregation, rendering and conversion in order.
type Pipeline struct {
	collector *compliance.Collector
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline reading through collector.
func NewPipeline(collector *compliance.Collector, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		collector: collector,
		opts:      opts,
		logger:    logger.Named("results_pipeline"),
		now:       time.Now,
	}
}

// Run executes one report run. Collection errors abort the run before
// anything is rendered.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("Starting report run", zap.String("scope", p.opts.ScopeLabel), zap.Duration("window", p.opts.Window))

	rows, err := p.collector.Collect(ctx, p.opts.Group)
	if err != nil {
		return nil, err
	}

	// One clock reading drives the window check, the title date and the file names.
	now := p.now()
	summary := Aggregate(rows, p.opts.Window, now)
	p.logger.Info("Fleet aggregated",
		zap.Int("total_machines", summary.TotalMachines),
		zap.Int("machines_needing_updates", summary.AnyNeeded),
		zap.Int("needed_updates", summary.NeededUpdates),
		zap.Int("failed_updates", summary.FailedUpdates),
	)

	in := reporting.RenderInput{
		Scope:   p.opts.ScopeLabel,
		Summary: summary,
		Rows:    rows,
		Window:  p.opts.Window,
		Now:     now,
		TopN:    p.opts.TopN,
	}
	report, err := reporting.Build(in)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Report rendered", zap.Int("markdown_bytes", len(report.Markdown)), zap.Int("html_bytes", len(report.HTML)))
	return &Result{Rows: rows, Summary: summary, Report: report}, nil
}
