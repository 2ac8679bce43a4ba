// File: internal/reporting/markdown.go
package reporting

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/compliance"
)

// DefaultTopN is the number of machines listed in the detail table.
const DefaultTopN = 50

const (
	titleDateLayout = "2006-01-02"
	lastSyncLayout  = "2006-01-02 15:04"
	neverSynced     = "Never"
)

// RenderInput is everything the Markdown renderer needs. It carries no
// connection or delivery settings.
type RenderInput struct {
	Scope   string
	Summary schemas.FleetSummary
	Rows    []schemas.ComplianceRow
	// Window enables activity filtering of the detail table when positive.
	Window time.Duration
	// Now stamps the title and anchors the activity window.
	Now time.Time
	// TopN caps the detail table. Zero selects DefaultTopN.
	TopN int
}

// Title returns the report heading text for the given date.
func Title(now time.Time) string {
	return "Update Compliance Report - " + now.Format(titleDateLayout)
}

// RenderMarkdown produces the canonical Markdown report. Identical input
// always yields byte-identical output; every line ends in "\n".
func RenderMarkdown(in RenderInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	topN := in.TopN
	if topN == 0 {
		topN = DefaultTopN
	}

	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line("# " + Title(in.Now))
	line("")
	line("Scope: **" + in.Scope + "**")
	line("")
	if in.Window > 0 {
		line(fmt.Sprintf("Detail is limited to machines that synced in the last %s. Totals cover every machine in scope.", windowLabel(in.Window)))
		line("")
	}

	// -- Fleet Summary --
	line("## Fleet Summary")
	line("")
	line("| Metric | Count |")
	line("|---|---|")
	for _, m := range summaryMetrics(in.Summary, in.Window) {
		line("| " + m.name + " | " + strconv.Itoa(m.value) + " |")
	}
	line("")

	// -- Per-Machine Detail --
	line("## Per-Machine Detail")
	line("")
	line("| Computer | Needed | Failed | Pending Reboot | Installed | Not Applicable | Last Sync | Groups |")
	line("|---|---|---|---|---|---|---|---|")
	for _, r := range SelectTop(in.Rows, in.Window, in.Now, topN) {
		line("| " + strings.Join([]string{
			r.ComputerName,
			strconv.Itoa(r.Needed),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.PendingReboot),
			strconv.Itoa(r.Installed),
			strconv.Itoa(r.NotApplicable),
			formatLastSync(r.LastSync, in.Now.Location()),
			formatGroups(r.GroupNames),
		}, " | ") + " |")
	}

	return b.String(), nil
}

// SelectTop returns at most n rows ordered by Needed descending. Ties keep
// their input order. With a positive window only active rows qualify.
// The input slice is not modified.
func SelectTop(rows []schemas.ComplianceRow, window time.Duration, now time.Time, n int) []schemas.ComplianceRow {
	selected := make([]schemas.ComplianceRow, 0, len(rows))
	for _, r := range rows {
		if compliance.IsActive(r, window, now) {
			selected = append(selected, r)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Needed > selected[j].Needed
	})
	if len(selected) > n {
		selected = selected[:n]
	}
	return selected
}

type metric struct {
	name  string
	value int
}

func summaryMetrics(s schemas.FleetSummary, window time.Duration) []metric {
	metrics := []metric{{"Total machines", s.TotalMachines}}
	if window > 0 && s.ActiveMachines != nil {
		metrics = append(metrics, metric{"Active machines (last " + windowLabel(window) + ")", *s.ActiveMachines})
	}
	return append(metrics,
		metric{"Machines needing updates", s.AnyNeeded},
		metric{"Machines with failed updates", s.AnyFailed},
		metric{"Machines pending reboot", s.AnyPendingReboot},
		metric{"Total needed updates", s.NeededUpdates},
		metric{"Total failed updates", s.FailedUpdates},
	)
}

// windowLabel names whole-day windows in days and anything else as a duration.
func windowLabel(window time.Duration) string {
	const day = 24 * time.Hour
	if window < day || window%day != 0 {
		return window.String()
	}
	if days := int(window / day); days > 1 {
		return strconv.Itoa(days) + " days"
	}
	return "1 day"
}

func formatLastSync(t time.Time, loc *time.Location) string {
	if t.IsZero() || t.Unix() <= 0 {
		return neverSynced
	}
	return t.In(loc).Format(lastSyncLayout)
}

// formatGroups joins group names for a table cell. Pipes would split the
// cell, so they become dashes.
func formatGroups(groups []string) string {
	return strings.ReplaceAll(strings.Join(groups, ", "), "|", "-")
}

func (in RenderInput) validate() error {
	if in.TopN < 0 {
		return fmt.Errorf("%w: negative detail row limit %d", schemas.ErrRender, in.TopN)
	}
	s := in.Summary
	if s.TotalMachines < 0 || s.AnyNeeded < 0 || s.AnyFailed < 0 || s.AnyPendingReboot < 0 || s.NeededUpdates < 0 || s.FailedUpdates < 0 {
		return fmt.Errorf("%w: negative summary value", schemas.ErrRender)
	}
	for _, r := range in.Rows {
		if r.Needed < 0 || r.Failed < 0 || r.PendingReboot < 0 || r.Installed < 0 || r.NotApplicable < 0 {
			return fmt.Errorf("%w: negative count for %q", schemas.ErrRender, r.ComputerName)
		}
	}
	return nil
}
