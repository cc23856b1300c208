// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutputRow holds one value per canonical column, in column order.
type OutputRow []string

// RowSet is the final projection of a run: the canonical column list and the
// rows in deterministic rank order.
type RowSet struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Rows    []OutputRow `json:"rows" yaml:"rows"`
}

// Index returns the position of column name, or -1.
func (rs RowSet) Index(name string) int {
	for i, c := range rs.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the value of column name in row i, or "" when either is
// out of range.
func (rs RowSet) Value(i int, name string) string {
	col := rs.Index(name)
	if col < 0 || i < 0 || i >= len(rs.Rows) || col >= len(rs.Rows[i]) {
		return ""
	}
	return rs.Rows[i][col]
}
