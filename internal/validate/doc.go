// Package validate implements the deterministic rule engine that flags
// structural problems in RACI assignments.
//
// Validation is a pure function of its inputs plus configuration: it
// mutates nothing and produces a fresh issue list on every run. Business
// rule violations become Issues, never errors; the only error path is a
// referential integrity fault, which signals a caller/integration bug.
// Re-running validation without clearing previously persisted issues
// duplicates them - clearing is the caller's responsibility.
package validate
