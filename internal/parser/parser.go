package parser

import (
	"strings"

	"github.com/fenwick-labs/raciforge/internal/matrix"
)

// Result is the complete output of parsing one template.
type Result struct {
	Fingerprint  string              `json:"fingerprint"`
	Domains      []matrix.Domain     `json:"domains"`
	Roles        []matrix.Role       `json:"roles"`
	Activities   []matrix.Activity   `json:"activities"`
	Instructions map[string]string   `json:"instructions,omitempty"`
	Lists        map[string][]string `json:"lists,omitempty"`
}

// Parse opens raw workbook bytes and produces the parsed records plus a
// content fingerprint. It returns ErrUnreadableTemplate (wrapped) when
// the bytes cannot be opened as a workbook; all other irregularities
// degrade per the package heuristics.
func Parse(data []byte) (*Result, error) {
	sheets, err := decodeWorkbook(data)
	if err != nil {
		return nil, err
	}
	res := ParseSheets(sheets)
	res.Fingerprint = matrix.Fingerprint(data)
	return res, nil
}

// ParseSheets runs the parse heuristics over an in-memory workbook.
// Sheets are visited in the given order; that order fixes domain and
// role order indexes. The returned result has no fingerprint (there are
// no raw bytes to hash); Parse fills it in.
func ParseSheets(sheets []Sheet) *Result {
	res := &Result{
		Instructions: make(map[string]string),
		Lists:        make(map[string][]string),
	}

	for _, sheet := range sheets {
		switch classifySheet(sheet.Name) {
		case kindMatrix:
			parseMatrixSheet(res, sheet)
		case kindInstructions:
			if text := joinSheetText(sheet); text != "" {
				res.Instructions[sheet.Name] = text
			}
		case kindList:
			if vals := firstColumnValues(sheet); len(vals) > 0 {
				res.Lists[sheet.Name] = vals
			}
		}
	}

	return res
}

// parseMatrixSheet parses one RACI matrix sheet into a domain, its
// roles, and its activities, appending them to res. A sheet with no
// detectable role header row contributes nothing.
func parseMatrixSheet(res *Result, sheet Sheet) {
	headerRow, roles, ok := detectRoleHeader(sheet)
	if !ok {
		return
	}

	domain := matrix.Domain{
		Key:         sheet.Name,
		DisplayName: sheet.Name,
		OrderIndex:  len(res.Domains),
	}
	res.Domains = append(res.Domains, domain)

	for i := range roles {
		roles[i].Domain = domain.Key
		roles[i].Key = matrix.RoleKey(domain.Key, roles[i].Name)
	}
	res.Roles = append(res.Roles, roles...)

	var currentSection string
	activityCount := 0
	for r := headerRow + 1; r <= len(sheet.Rows); r++ {
		label := sheet.Cell(r, 1)
		if label == "" {
			// Blank or separator row. A row with values but no label
			// cannot be attributed to an activity, so it is skipped too.
			continue
		}
		if rowEmptyAfterLabel(sheet, r) {
			// Section header: remembered for subsequent activities,
			// produces no Activity itself.
			currentSection = label
			continue
		}

		activity := matrix.Activity{
			Key:        matrix.ActivityKey(domain.Key, activityCount, label),
			Domain:     domain.Key,
			Text:       label,
			Section:    currentSection,
			OrderIndex: activityCount,
			CellMap:    make(map[string]matrix.CellRef, len(roles)),
		}
		for _, role := range roles {
			activity.CellMap[role.Key] = matrix.CellRef{Row: r, Col: role.ColumnIndex}
			raw := sheet.Cell(r, role.ColumnIndex)
			if raw == "" {
				continue
			}
			value, err := matrix.ParseValue(raw)
			if err != nil || !value.IsSet() {
				// Free-form content outside the closed value set seeds
				// nothing; the cell still stays in the coordinate map.
				continue
			}
			if activity.InitialValues == nil {
				activity.InitialValues = make(map[string]matrix.Value)
			}
			activity.InitialValues[role.Key] = value
		}

		res.Activities = append(res.Activities, activity)
		activityCount++
	}
}

// detectRoleHeader scans rows from the top of a matrix sheet. The first
// row containing at least one non-empty cell in any column after the
// first is the role header row. Role names are the trimmed non-empty
// values in columns 2..N of that row, left to right; order index is the
// 1-based position among detected roles while ColumnIndex preserves the
// absolute column for coordinate mapping.
func detectRoleHeader(sheet Sheet) (headerRow int, roles []matrix.Role, ok bool) {
	for r := 1; r <= len(sheet.Rows); r++ {
		row := sheet.Rows[r-1]
		for c := 2; c <= len(row); c++ {
			name := strings.TrimSpace(row[c-1])
			if name == "" {
				continue
			}
			roles = append(roles, matrix.Role{
				Name:        name,
				ColumnIndex: c,
				OrderIndex:  len(roles) + 1,
			})
		}
		if len(roles) > 0 {
			return r, roles, true
		}
	}
	return 0, nil, false
}

// rowEmptyAfterLabel reports whether every cell after column 1 in the
// given row is empty. Such a row's label is a section header.
func rowEmptyAfterLabel(sheet Sheet, row int) bool {
	cells := sheet.Rows[row-1]
	for c := 2; c <= len(cells); c++ {
		if strings.TrimSpace(cells[c-1]) != "" {
			return false
		}
	}
	return true
}

// joinSheetText captures an instruction sheet verbatim: non-empty cell
// values are space-joined per row and rows are newline-joined.
func joinSheetText(sheet Sheet) string {
	var lines []string
	for _, row := range sheet.Rows {
		var parts []string
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}

// firstColumnValues captures a list sheet as the ordered non-empty
// values of its first column.
func firstColumnValues(sheet Sheet) []string {
	var vals []string
	for r := 1; r <= len(sheet.Rows); r++ {
		if v := sheet.Cell(r, 1); v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}
