// Package export re-renders current assignment values into a copy of
// the original spreadsheet template, preserving everything else (styles,
// unrelated sheets, formulas) as opaque passthrough.
//
// Export never mutates the stored original template; it reads it and
// produces a new byte sequence. Cell writes that no longer line up with
// the template (structure changed since parsing) are skipped and
// reported individually rather than failing the export.
package export
