package models

// Table is an ordered sheet: a fixed header and its rows.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (t Table) Len() int { return len(t.Rows) }

// Clone returns a deep copy so cached tables are never mutated by callers.
func (t Table) Clone() Table {
	out := Table{Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = append([]string(nil), r...)
		}
	}
	return out
}

// ColumnIndex returns the position of col in the header, or -1.
func (t Table) ColumnIndex(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Equal compares header and rows cell by cell.
func (t Table) Equal(o Table) bool {
	if !equalRow(t.Header, o.Header) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if !equalRow(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
