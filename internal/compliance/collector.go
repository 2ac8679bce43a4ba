// File: internal/compliance/collector.go
package compliance

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

// Collector turns a source's machines into compliance rows.
type Collector struct {
	source      schemas.Source
	concurrency int
	logger      *zap.Logger
}

// NewCollector creates a collector. A concurrency below 1 is treated as 1,
// which fetches machines strictly one after another.
func NewCollector(source schemas.Source, concurrency int, logger *zap.Logger) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		source:      source,
		concurrency: concurrency,
		logger:      logger.Named("collector"),
	}
}

// Collect lists the machines in scope and builds one row per machine, in the
// order the source listed them. A failure for any machine aborts the whole
// collection; no partial row set is returned.
func (c *Collector) Collect(ctx context.Context, scope string) ([]schemas.ComplianceRow, error) {
	machines, err := c.source.ListMachines(ctx, scope)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Collecting update states", zap.String("scope", scope), zap.Int("machines", len(machines)), zap.Int("concurrency", c.concurrency))

	rows := make([]schemas.ComplianceRow, len(machines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, m := range machines {
		g.Go(func() error {
			records, err := c.source.GetUpdateStates(gctx, m.ID)
			if err != nil {
				return fmt.Errorf("collecting %s (%s): %w", m.Name, m.ID, err)
			}
			rows[i] = NewRow(m, records)
			c.logger.Debug("Machine collected", zap.String("computer", m.Name), zap.Int("records", len(records)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
