// Package model defines the core domain models used throughout the application.
package model

// RowData carries the table cells scraped for one results-table row.
// The engine treats cells as opaque; they exist only to identify the row in
// the end-of-run report.
type RowData struct {
	Cells []string
	Index int
}

// Store returns the first cell, which the fiscal portal uses for the store
// identifier. Empty when the row carried no cells.
func (r RowData) Store() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return r.Cells[0]
}

// Cell returns the i-th cell or "" when the row is shorter.
func (r RowData) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}
