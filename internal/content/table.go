package content

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Column names treated as the entity's natural key, checked in order.
var nameColumns = []string{"PLAYER", "Player", "player", "NAME", "Name", "name"}

// ParseTables extracts one Entity per data row from every table in the HTML
// body. Rows without a resolvable name are skipped. A body that fails to
// produce any entity yields an empty slice, not an error.
func ParseTables(body []byte) []Entity {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var entities []Entity
	for _, table := range findAll(doc, "table") {
		headers, rows := parseTable(table)
		if len(headers) == 0 {
			continue
		}
		for _, row := range rows {
			e := rowToEntity(headers, row)
			if e.Name != "" {
				entities = append(entities, e)
			}
		}
	}
	return entities
}

func parseTable(table *html.Node) ([]string, [][]string) {
	var headers []string
	var rows [][]string

	trs := findAll(table, "tr")
	for _, tr := range trs {
		cells := cellTexts(tr)
		if len(cells) == 0 {
			continue
		}
		if headers == nil {
			// First row with content supplies the headers, whether or not the
			// source used a thead.
			if hasElement(tr, "th") || inThead(tr) {
				headers = cells
				continue
			}
			headers = cells
			continue
		}
		rows = append(rows, cells)
	}
	return headers, rows
}

func rowToEntity(headers []string, row []string) Entity {
	fields := make(map[string]string, len(headers))
	for i, cell := range row {
		if i >= len(headers) {
			break
		}
		h := strings.TrimSpace(headers[i])
		if h == "" {
			continue
		}
		fields[h] = strings.TrimSpace(cell)
	}

	var name string
	for _, col := range nameColumns {
		if v, ok := fields[col]; ok && v != "" {
			name = v
			break
		}
	}
	if name == "" && len(headers) > 1 && len(row) > 1 {
		// Fall back to the second column; the first is commonly a rank number.
		if v := strings.TrimSpace(row[1]); v != "" && !isNumeric(v) {
			name = v
		}
	}
	return Entity{Name: name, Fields: fields}
}

func cellTexts(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, collapseSpace(textContent(c)))
		}
	}
	return cells
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
			if tag == "table" {
				// Nested tables are rare in stat pages; treat the outer one
				// as authoritative.
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasElement(n *html.Node, tag string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return true
		}
	}
	return false
}

func inThead(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "thead" {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return len(s) > 0
}
