// File: internal/compliance/activity.go
package compliance

import (
	"time"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

// IsActive reports whether a machine synced strictly after now-window.
// A zero window disables filtering and every row is active.
func IsActive(row schemas.ComplianceRow, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return true
	}
	return row.LastSync.After(now.Add(-window))
}
