package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrUnreadableTemplate marks a byte stream that cannot be opened as a
// structured workbook at all. This is the parser's only fatal failure;
// check with errors.Is.
var ErrUnreadableTemplate = errors.New("unreadable template")

// decodeWorkbook opens xlsx bytes and extracts every sheet as a plain
// value grid, in workbook sheet order. Styling, formulas, and charts are
// not interpreted; only computed cell values are read.
func decodeWorkbook(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableTemplate, err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}
