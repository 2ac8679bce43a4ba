// File: internal/reporting/html.go
package reporting

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

const defaultHTMLTitle = "Update Compliance Report"

const stylesheet = `
body { font-family: Segoe UI, Helvetica, Arial, sans-serif; margin: 24px; color: #222; }
h1 { font-size: 1.6em; border-bottom: 2px solid #0a5ea8; padding-bottom: 4px; }
h2 { font-size: 1.25em; margin-top: 1.4em; color: #0a5ea8; }
table { border-collapse: collapse; margin: 8px 0 16px; }
th, td { border: 1px solid #c8c8c8; padding: 4px 10px; text-align: left; }
th { background: #eef3f8; }
tr:nth-child(even) td { background: #fafafa; }
`

var (
	separatorCell = regexp.MustCompile(`^:?-+:?$`)
	boldSpan      = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// tableState is the converter's only state: whether a <table> is open.
type tableState int

const (
	outsideTable tableState = iota
	insideTable
)

// htmlConverter turns report Markdown into an HTML node tree one line at a
// time. It understands only what RenderMarkdown emits: "# " and "## "
// headings, pipe tables, paragraphs with **bold** spans and blank lines.
type htmlConverter struct {
	state tableState
	body  *html.Node
	// table and rows describe the open block while insideTable.
	table *html.Node
	rows  int
	title string
}

// ConvertHTML converts report Markdown into a self-contained HTML document.
// Text is escaped by the renderer, so cell and paragraph content cannot
// inject markup.
func ConvertHTML(markdown string) (string, error) {
	c := &htmlConverter{body: element(atom.Body)}
	c.body.AppendChild(textNode("\n"))

	if text := strings.TrimSuffix(markdown, "\n"); text != "" {
		for _, line := range strings.Split(text, "\n") {
			c.feed(strings.TrimSuffix(line, "\r"))
		}
	}
	c.finish()
	return c.render()
}

// feed advances the state machine by one line.
func (c *htmlConverter) feed(line string) {
	isRow := strings.HasPrefix(line, "|")

	switch c.state {
	case outsideTable:
		if isRow {
			c.openTable()
			c.row(line)
			return
		}
		c.block(line)
	case insideTable:
		if isRow {
			c.row(line)
			return
		}
		c.closeTable()
		c.block(line)
	}
}

func (c *htmlConverter) finish() {
	if c.state == insideTable {
		c.closeTable()
	}
}

func (c *htmlConverter) openTable() {
	c.table = element(atom.Table)
	c.table.AppendChild(textNode("\n"))
	c.rows = 0
	c.state = insideTable
}

func (c *htmlConverter) closeTable() {
	c.appendBlock(c.table)
	c.table = nil
	c.state = outsideTable
}

// row appends one table row. The first row of a block is the header;
// separator rows are dropped.
func (c *htmlConverter) row(line string) {
	cells := splitCells(line)
	if isSeparatorRow(cells) {
		return
	}
	cellAtom := atom.Td
	if c.rows == 0 {
		cellAtom = atom.Th
	}

	tr := element(atom.Tr)
	for _, cell := range cells {
		td := element(cellAtom)
		td.AppendChild(textNode(cell))
		tr.AppendChild(td)
	}
	c.table.AppendChild(tr)
	c.table.AppendChild(textNode("\n"))
	c.rows++
}

// block converts a line outside any table.
func (c *htmlConverter) block(line string) {
	switch {
	case strings.HasPrefix(line, "# "):
		text := strings.TrimSpace(line[2:])
		if c.title == "" {
			c.title = text
		}
		h := element(atom.H1)
		h.AppendChild(textNode(text))
		c.appendBlock(h)
	case strings.HasPrefix(line, "## "):
		h := element(atom.H2)
		h.AppendChild(textNode(strings.TrimSpace(line[3:])))
		c.appendBlock(h)
	case strings.TrimSpace(line) == "":
		c.appendBlock(element(atom.Br))
	default:
		p := element(atom.P)
		appendInline(p, line)
		c.appendBlock(p)
	}
}

func (c *htmlConverter) appendBlock(n *html.Node) {
	c.body.AppendChild(n)
	c.body.AppendChild(textNode("\n"))
}

func (c *htmlConverter) render() (string, error) {
	title := c.title
	if title == "" {
		title = defaultHTMLTitle
	}

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "name", Val: "viewport"}, html.Attribute{Key: "content", Val: "width=device-width, initial-scale=1"}))
	titleEl := element(atom.Title)
	titleEl.AppendChild(textNode(title))
	head.AppendChild(titleEl)
	style := element(atom.Style)
	style.AppendChild(textNode(stylesheet))
	head.AppendChild(style)

	root := element(atom.Html, html.Attribute{Key: "lang", Val: "en"})
	root.AppendChild(head)
	root.AppendChild(c.body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", fmt.Errorf("%w: %v", schemas.ErrRender, err)
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// appendInline adds text to parent, turning **x** into <strong>x</strong>.
func appendInline(parent *html.Node, text string) {
	last := 0
	for _, m := range boldSpan.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			parent.AppendChild(textNode(text[last:m[0]]))
		}
		strong := element(atom.Strong)
		strong.AppendChild(textNode(text[m[2]:m[3]]))
		parent.AppendChild(strong)
		last = m[1]
	}
	if last < len(text) {
		parent.AppendChild(textNode(text[last:]))
	}
}

func splitCells(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	cells := strings.Split(s, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if !separatorCell.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
