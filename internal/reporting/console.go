// File: internal/reporting/console.go
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/olekukonko/tablewriter"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

// PreviewWidth is the word-wrap column for terminal previews.
const PreviewWidth = 120

// WriteSummaryTable prints the fleet summary as a terminal table.
func WriteSummaryTable(w io.Writer, summary schemas.FleetSummary, window time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header("METRIC", "COUNT")
	for _, m := range summaryMetrics(summary, window) {
		if err := table.Append([]string{m.name, strconv.Itoa(m.value)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteGroupsTable prints the server's computer groups.
func WriteGroupsTable(w io.Writer, groups []schemas.Group) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "NAME", "COMPUTERS")
	for _, g := range groups {
		if err := table.Append([]string{g.ID, g.Name, strconv.Itoa(g.Count)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// Preview renders Markdown for a terminal. style is a glamour standard
// style name; "auto" picks one from the terminal background.
func Preview(w io.Writer, markdown, style string) error {
	opt := glamour.WithStandardStyle(style)
	if style == "" || style == "auto" {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(PreviewWidth))
	if err != nil {
		return fmt.Errorf("creating preview renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
