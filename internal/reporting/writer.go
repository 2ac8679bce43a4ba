// File: internal/reporting/writer.go
package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

const fileDateLayout = "20060102"

// OutputPaths names the two files written for a report.
type OutputPaths struct {
	Markdown string
	HTML     string
}

// PathsFor returns <dir>/<prefix>-<YYYYMMDD>.md and its .html sibling.
func PathsFor(dir, prefix string, report *schemas.Report) OutputPaths {
	base := filepath.Join(dir, prefix+"-"+report.Date.Format(fileDateLayout))
	return OutputPaths{Markdown: base + ".md", HTML: base + ".html"}
}

// WriteFiles stores both renditions under dir, creating it if needed.
// An existing report for the same day is overwritten.
func WriteFiles(dir, prefix string, report *schemas.Report) (OutputPaths, error) {
	paths := PathsFor(dir, prefix, report)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	if err := os.WriteFile(paths.Markdown, []byte(report.Markdown), 0o644); err != nil {
		return paths, fmt.Errorf("failed to write markdown report %s: %w", paths.Markdown, err)
	}
	if err := os.WriteFile(paths.HTML, []byte(report.HTML), 0o644); err != nil {
		return paths, fmt.Errorf("failed to write html report %s: %w", paths.HTML, err)
	}
	return paths, nil
}
