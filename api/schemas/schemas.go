package schemas

import (
	"strings"
	"time"
)

// -- Update State --

// UpdateState is the installation state of a single update on a single machine.
// The zero value is UpdateStateUnknown, which is never counted.
type UpdateState int

const (
	UpdateStateUnknown UpdateState = iota
	UpdateStateInstalled
	UpdateStateNotApplicable
	UpdateStateNeeded
	UpdateStateFailed
	UpdateStatePendingReboot
)

// stateTags maps the lowercased raw tags reported by the update server onto
// the states the report understands. "notinstalled" is the legacy spelling of
// "needed" and must count identically.
var stateTags = map[string]UpdateState{
	"installed":              UpdateStateInstalled,
	"notapplicable":          UpdateStateNotApplicable,
	"needed":                 UpdateStateNeeded,
	"notinstalled":           UpdateStateNeeded,
	"failed":                 UpdateStateFailed,
	"pendingreboot":          UpdateStatePendingReboot,
	"installedpendingreboot": UpdateStatePendingReboot,
}

// ParseUpdateState converts a raw server tag into an UpdateState.
// Unrecognized tags yield UpdateStateUnknown.
func ParseUpdateState(tag string) UpdateState {
	key := strings.ToLower(strings.TrimSpace(tag))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	return stateTags[key]
}

// String returns the canonical tag for the state.
func (s UpdateState) String() string {
	switch s {
	case UpdateStateInstalled:
		return "Installed"
	case UpdateStateNotApplicable:
		return "NotApplicable"
	case UpdateStateNeeded:
		return "Needed"
	case UpdateStateFailed:
		return "Failed"
	case UpdateStatePendingReboot:
		return "PendingReboot"
	default:
		return "Unknown"
	}
}

// -- Source Records --

// UpdateRecord pairs an update identifier with the raw state tag the server
// reported for it on one machine.
type UpdateRecord struct {
	UpdateID string `json:"updateId" yaml:"update_id"`
	State    string `json:"state" yaml:"state"`
}

// MachineIdentity is the static metadata of a registered machine.
type MachineIdentity struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Groups        []string  `json:"groups" yaml:"groups"`
	OSDescription string    `json:"osDescription" yaml:"os_description"`
	LastSync      time.Time `json:"lastSyncTime" yaml:"last_sync"`
}

// Group is a named computer group on the update server.
type Group struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"computerCount" yaml:"-"`
}

// -- Compliance Rows --

// ComplianceRow is the per-machine summary produced once per run. Counts are
// derived only from that machine's records and are never mutated afterwards.
type ComplianceRow struct {
	ComputerName  string
	GroupNames    []string
	OSDescription string
	LastSync      time.Time

	Installed     int
	NotApplicable int
	Needed        int
	Failed        int
	PendingReboot int
}

// FleetSummary is a pure reduction over the rows of one run.
type FleetSummary struct {
	TotalMachines int
	// ActiveMachines is nil unless an activity window was configured.
	ActiveMachines   *int
	AnyNeeded        int
	AnyFailed        int
	AnyPendingReboot int
	NeededUpdates    int
	FailedUpdates    int
}

// Report is the rendered artifact of one run.
type Report struct {
	Markdown string
	HTML     string
	// Title is used as the chat title and the email subject fallback.
	Title string
	// Date is the run date both output file names are stamped with.
	Date time.Time
}
