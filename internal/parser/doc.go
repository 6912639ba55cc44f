// Package parser converts a raw spreadsheet template into parsed
// Domain/Role/Activity records plus a per-activity coordinate map.
//
// Sheet classification, role-header detection, and the section-header
// vs. activity-row distinction are best-effort heuristics over
// human-authored spreadsheets. They are documented behavior, not
// guaranteed-correct parsing: irregular tabular content degrades to
// empty results for the affected sheet rather than failing the parse.
// The only fatal condition is a byte stream that cannot be opened as a
// workbook at all (ErrUnreadableTemplate).
package parser
