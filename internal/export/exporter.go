package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fenwick-labs/raciforge/internal/matrix"
	"github.com/fenwick-labs/raciforge/internal/parser"
)

// ProvenanceSheet is the name of the sheet appended to every export.
const ProvenanceSheet = "Outputs"

// Lookup resolves the current assignment value for (activity, role).
// Returning ValueNone leaves the template cell untouched, deliberately
// preserving any original seed value that was never superseded.
type Lookup func(activityKey, roleKey string) matrix.Value

// Request carries the immutable inputs for one export.
type Request struct {
	Template    []byte            // original template bytes, never mutated
	Activities  []matrix.Activity // parsed activities with their cell maps
	Workshop    string            // workshop identifier for provenance
	Assignments Lookup

	// Now pins the provenance timestamp; the zero value means the
	// current UTC time. Exports are byte-identical for identical inputs
	// including Now.
	Now time.Time
}

// SkippedWrite records one cell write that could not be applied because
// the template no longer matches the captured coordinates.
type SkippedWrite struct {
	ActivityKey string         `json:"activity_key"`
	RoleKey     string         `json:"role_key,omitempty"`
	Cell        matrix.CellRef `json:"cell"`
	Reason      string         `json:"reason"`
}

// Result is the outcome of one export. Skipped writes are non-fatal;
// the export completes and Data always holds a full workbook.
type Result struct {
	Data    []byte         `json:"-"`
	Written int            `json:"written"`
	Skipped []SkippedWrite `json:"skipped,omitempty"`
}

// Export writes current assignment values into a copy of the original
// template at the coordinates captured during parsing, then appends the
// provenance sheet.
//
// Activities are re-identified against their original rows by
// canonical (trimmed, NFC-normalized) label equality. A label that
// changed since parsing makes the row's writes skip with a
// TemplateMismatch reason rather than guessing a different row; the
// supported path after editing labels is to re-parse before exporting.
func Export(req Request) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(req.Template))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrUnreadableTemplate, err)
	}
	defer f.Close()

	res := &Result{}
	dims := make(map[string]sheetDims)

	for _, activity := range req.Activities {
		sheet := activity.Domain

		idx, err := f.GetSheetIndex(sheet)
		if err != nil || idx < 0 {
			res.skipAll(activity, "sheet missing from template")
			continue
		}
		if _, ok := dims[sheet]; !ok {
			rows, err := f.GetRows(sheet)
			if err != nil {
				return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
			}
			dims[sheet] = measure(rows)
		}

		for _, roleKey := range sortedRoleKeys(activity.CellMap) {
			cell := activity.CellMap[roleKey]
			skip := func(reason string) {
				res.Skipped = append(res.Skipped, SkippedWrite{
					ActivityKey: activity.Key,
					RoleKey:     roleKey,
					Cell:        cell,
					Reason:      reason,
				})
				slog.Warn("export write skipped",
					"workshop", req.Workshop,
					"activity", activity.Text,
					"role", roleKey,
					"row", cell.Row,
					"col", cell.Col,
					"reason", reason,
				)
			}

			if !cell.Valid() || cell.Row > dims[sheet].rows || cell.Col > dims[sheet].cols {
				skip("coordinate outside sheet bounds")
				continue
			}
			if !rowMatchesLabel(f, sheet, cell.Row, activity.Text) {
				skip("row label changed since parse")
				continue
			}

			value := req.Assignments(activity.Key, roleKey)
			if !value.IsSet() {
				continue
			}

			axis, err := excelize.CoordinatesToCellName(cell.Col, cell.Row)
			if err != nil {
				skip("coordinate outside sheet bounds")
				continue
			}
			if err := f.SetCellValue(sheet, axis, string(value)); err != nil {
				return nil, fmt.Errorf("write cell %s!%s: %w", sheet, axis, err)
			}
			res.Written++
		}
	}

	if err := appendProvenance(f, req); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize export: %w", err)
	}
	res.Data = buf.Bytes()

	slog.Info("export complete",
		"workshop", req.Workshop,
		"written", res.Written,
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// sheetDims bounds coordinate validation for one sheet.
type sheetDims struct {
	rows int
	cols int // widest row; per-row widths are unreliable because trailing empty cells are trimmed
}

// measure derives a sheet's bounds from its value grid. Columns are
// compared against the widest row: the role header row always carries a
// value in every mapped column, so a sheet narrower than a captured
// coordinate has lost columns since parsing.
func measure(rows [][]string) sheetDims {
	d := sheetDims{rows: len(rows)}
	for _, row := range rows {
		if len(row) > d.cols {
			d.cols = len(row)
		}
	}
	return d
}

// skipAll records a skip for every mapped cell of an activity, used when
// the whole sheet is gone.
func (r *Result) skipAll(activity matrix.Activity, reason string) {
	for _, roleKey := range sortedRoleKeys(activity.CellMap) {
		r.Skipped = append(r.Skipped, SkippedWrite{
			ActivityKey: activity.Key,
			RoleKey:     roleKey,
			Cell:        activity.CellMap[roleKey],
			Reason:      reason,
		})
	}
}

// rowMatchesLabel checks that the label column of the target row still
// carries the activity's text.
func rowMatchesLabel(f *excelize.File, sheet string, row int, text string) bool {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return false
	}
	label, err := f.GetCellValue(sheet, axis)
	if err != nil {
		return false
	}
	return matrix.CanonicalLabel(label) == matrix.CanonicalLabel(text)
}

// appendProvenance adds the export provenance sheet: timestamp, workshop
// identifier, and a note distinguishing auto-filled cells from
// human-entered source data. It is appended, never merged into data
// sheets.
func appendProvenance(f *excelize.File, req Request) error {
	if _, err := f.NewSheet(ProvenanceSheet); err != nil {
		return fmt.Errorf("create provenance sheet: %w", err)
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rows := [][2]string{
		{"Exported", now.UTC().Format(time.RFC3339)},
		{"Workshop", req.Workshop},
		{"Notes", "RACI cells were filled automatically from the current assignment snapshot; all other content is human-entered source data."},
	}
	for i, row := range rows {
		for j, v := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("provenance cell: %w", err)
			}
			if err := f.SetCellValue(ProvenanceSheet, axis, v); err != nil {
				return fmt.Errorf("write provenance: %w", err)
			}
		}
	}
	return nil
}

// sortedRoleKeys returns the cell map's role keys in sorted order so
// export output is deterministic for identical inputs.
func sortedRoleKeys(cellMap map[string]matrix.CellRef) []string {
	keys := make([]string, 0, len(cellMap))
	for k := range cellMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
