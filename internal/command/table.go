package command

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/sheetboard/sheetboard/internal/sheets"
)

const columnSeparator = " | "

var cellReplacer = strings.NewReplacer("`", "'", "\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// tableLayout is the outcome of renderTable.
type tableLayout struct {
	text           string
	omittedRows    int
	omittedColumns int
}

// renderTable lays header and rows out as a monospace table. Every cell is left-aligned and
// padded to the display width of the widest value in its column. Trailing columns are dropped
// until the header, the rule and the first row fit in budget bytes, then rows are added until the
// next one would not fit. When not even the first column fits, text is empty and everything is omitted.
func renderTable(header sheets.Row, rows []sheets.Row, budget int) tableLayout {
	columns := len(header)
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}

	clean := func(row sheets.Row) []string {
		cells := make([]string, columns)
		for i := range cells {
			if i < len(row) {
				cells[i] = cellReplacer.Replace(strings.TrimSpace(row[i]))
			}
		}
		return cells
	}

	headerCells := clean(header)
	dataCells := make([][]string, 0, len(rows))
	for _, row := range rows {
		dataCells = append(dataCells, clean(row))
	}

	widths := make([]int, columns)
	for _, cells := range append([][]string{headerCells}, dataCells...) {
		for i, cell := range cells {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, shown int) string {
		padded := make([]string, shown)
		for i := range padded {
			padded[i] = runewidth.FillRight(cells[i], widths[i])
		}
		return strings.Join(padded, columnSeparator)
	}

	rule := func(shown int) string {
		rules := make([]string, shown)
		for i := range rules {
			rules[i] = strings.Repeat("-", widths[i])
		}
		return strings.Join(rules, "-+-")
	}

	// Columns are cut until the header, the rule and the first row fit together.
	fits := func(shown int) bool {
		n := len(line(headerCells, shown)) + 1 + len(rule(shown))
		if len(dataCells) > 0 {
			n += 1 + len(line(dataCells[0], shown))
		}
		return n <= budget
	}

	shown := columns
	for shown > 0 && !fits(shown) {
		shown--
	}
	if shown == 0 {
		return tableLayout{omittedRows: len(rows), omittedColumns: columns}
	}

	var sb strings.Builder
	sb.WriteString(line(headerCells, shown))
	sb.WriteString("\n")
	sb.WriteString(rule(shown))

	for i, cells := range dataCells {
		next := line(cells, shown)
		if sb.Len()+1+len(next) > budget {
			return tableLayout{text: sb.String(), omittedRows: len(dataCells) - i, omittedColumns: columns - shown}
		}
		sb.WriteString("\n")
		sb.WriteString(next)
	}

	return tableLayout{text: sb.String(), omittedColumns: columns - shown}
}
