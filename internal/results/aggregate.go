// File: internal/results/aggregate.go
package results

import (
	"time"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/compliance"
)

// Aggregate reduces rows into fleet-wide statistics.
//
// Machine and update totals are always taken over every row, so stale
// machines still count toward exposure. The window only gates
// ActiveMachines, which is left nil when no window is set.
func Aggregate(rows []schemas.ComplianceRow, window time.Duration, now time.Time) schemas.FleetSummary {
	s := schemas.FleetSummary{TotalMachines: len(rows)}

	active := 0
	for _, r := range rows {
		if r.Needed > 0 {
			s.AnyNeeded++
		}
		if r.Failed > 0 {
			s.AnyFailed++
		}
		if r.PendingReboot > 0 {
			s.AnyPendingReboot++
		}
		s.NeededUpdates += r.Needed
		s.FailedUpdates += r.Failed
		if window > 0 && compliance.IsActive(r, window, now) {
			active++
		}
	}

	if window > 0 {
		s.ActiveMachines = &active
	}
	return s
}
