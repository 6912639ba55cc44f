package parser

import "strings"

// Sheet is the in-memory representation of one named worksheet: a
// 2-D grid of scalar cell values with 1-based row/column addressing.
// Rows may be ragged; absent cells read as empty.
type Sheet struct {
	Name string
	Rows [][]string
}

// Cell returns the trimmed value at the 1-based (row, col) coordinate,
// or "" when the coordinate lies outside the grid.
func (s Sheet) Cell(row, col int) string {
	if row < 1 || row > len(s.Rows) {
		return ""
	}
	r := s.Rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

// sheetKind classifies a sheet by its name. Classification drives which
// parse path (if any) the sheet takes.
type sheetKind int

const (
	kindIgnored sheetKind = iota
	kindMatrix
	kindInstructions
	kindList
)

// classifySheet applies the name heuristics: a case-insensitive "…RACI"
// suffix marks a matrix sheet, an "instruction…" prefix marks free-text
// metadata, a "list…" prefix marks an ordered value list. Everything
// else is opaque passthrough.
func classifySheet(name string) sheetKind {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(lower, "raci"):
		return kindMatrix
	case strings.HasPrefix(lower, "instruction"):
		return kindInstructions
	case strings.HasPrefix(lower, "list"):
		return kindList
	default:
		return kindIgnored
	}
}
