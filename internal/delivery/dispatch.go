// File: internal/delivery/dispatch.go
package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

// Dispatcher hands a finished report to each configured sink in turn.
type Dispatcher struct {
	sinks  []schemas.Sink
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over sinks.
func NewDispatcher(logger *zap.Logger, sinks ...schemas.Sink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sinks: sinks, logger: logger.Named("delivery")}
}

// Deliver runs every enabled sink, even after an earlier one fails.
// Unconfigured sinks are skipped silently. Failures are logged and returned
// joined, each wrapping ErrDelivery.
func (d *Dispatcher) Deliver(ctx context.Context, report *schemas.Report) error {
	var errs []error
	for _, s := range d.sinks {
		if !s.Enabled() {
			d.logger.Debug("Sink not configured, skipping", zap.String("sink", s.Name()))
			continue
		}
		if err := s.Deliver(ctx, report); err != nil {
			d.logger.Error("Report delivery failed", zap.String("sink", s.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%w: %s: %w", schemas.ErrDelivery, s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
