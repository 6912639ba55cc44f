// Package matrix defines the core domain model for RACI responsibility
// matrices: domains, roles, activities with their captured spreadsheet
// coordinates, assignment values, and validation issues.
//
// All record types are plain immutable values. Nothing in this package
// performs I/O; parsing, persistence, and export live in their own
// packages and exchange these types.
package matrix
