// File: internal/compliance/counter.go
package compliance

import (
	"github.com/xkilldash9x/patchreport/api/schemas"
)

// Counts holds the five per-state tallies for one machine.
type Counts struct {
	Installed     int
	NotApplicable int
	Needed        int
	Failed        int
	PendingReboot int
}

// Total is the number of recognized records that were counted.
func (c Counts) Total() int {
	return c.Installed + c.NotApplicable + c.Needed + c.Failed + c.PendingReboot
}

// Count tallies raw update records by state. Records whose tag does not map
// to a known state are skipped.
func Count(records []schemas.UpdateRecord) Counts {
	var c Counts
	for _, r := range records {
		switch schemas.ParseUpdateState(r.State) {
		case schemas.UpdateStateInstalled:
			c.Installed++
		case schemas.UpdateStateNotApplicable:
			c.NotApplicable++
		case schemas.UpdateStateNeeded:
			c.Needed++
		case schemas.UpdateStateFailed:
			c.Failed++
		case schemas.UpdateStatePendingReboot:
			c.PendingReboot++
		}
	}
	return c
}

// NewRow builds the compliance row for one machine. The identity's metadata
// is attached unchanged; the group slice is copied so the row owns it.
func NewRow(machine schemas.MachineIdentity, records []schemas.UpdateRecord) schemas.ComplianceRow {
	c := Count(records)
	return schemas.ComplianceRow{
		ComputerName:  machine.Name,
		GroupNames:    append([]string(nil), machine.Groups...),
		OSDescription: machine.OSDescription,
		LastSync:      machine.LastSync,
		Installed:     c.Installed,
		NotApplicable: c.NotApplicable,
		Needed:        c.Needed,
		Failed:        c.Failed,
		PendingReboot: c.PendingReboot,
	}
}
