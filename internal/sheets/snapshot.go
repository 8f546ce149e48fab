package sheets

import "fmt"

// Row is the ordered cell values of one worksheet row.
type Row []string

// Snapshot is the content of a worksheet as returned by one read.
// The first row is the header; every other row is data.
type Snapshot struct {
	// Title is the worksheet title.
	Title string

	Header Row
	Rows   []Row
}

// Width returns the number of header columns.
func (s *Snapshot) Width() int {
	return len(s.Header)
}

// Empty reports whether the worksheet holds no data rows.
func (s *Snapshot) Empty() bool {
	return len(s.Rows) == 0
}

func toRow(cells []interface{}) Row {
	row := make(Row, 0, len(cells))
	for _, cell := range cells {
		if cell == nil {
			row = append(row, "")
			continue
		}
		row = append(row, fmt.Sprint(cell))
	}
	return row
}

func newSnapshot(title string, values [][]interface{}) *Snapshot {
	snapshot := &Snapshot{Title: title}
	if len(values) == 0 {
		return snapshot
	}

	snapshot.Header = toRow(values[0])
	snapshot.Rows = make([]Row, 0, len(values)-1)
	for _, cells := range values[1:] {
		snapshot.Rows = append(snapshot.Rows, toRow(cells))
	}
	return snapshot
}
