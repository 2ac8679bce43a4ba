// File: internal/reporting/build.go
package reporting

import (
	"github.com/xkilldash9x/patchreport/api/schemas"
)

// Build renders the Markdown report and its HTML sibling.
func Build(in RenderInput) (*schemas.Report, error) {
	md, err := RenderMarkdown(in)
	if err != nil {
		return nil, err
	}
	doc, err := ConvertHTML(md)
	if err != nil {
		return nil, err
	}
	return &schemas.Report{
		Markdown: md,
		HTML:     doc,
		Title:    Title(in.Now),
		Date:     in.Now,
	}, nil
}
