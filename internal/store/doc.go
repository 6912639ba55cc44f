// Package store provides durable storage for parsed templates,
// assignments, validation issues, and action items.
//
// It uses SQLite with WAL mode. The store owns the assignment lifecycle
// the core packages deliberately avoid: parser output is persisted once
// per workshop, assignments are upserted as workshop participants make
// decisions, and the validator and exporter read consistent snapshots
// back out. Writers are serialized on a single connection, so a
// validation read never observes a partially applied bulk update.
package store
