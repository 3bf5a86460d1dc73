// Package models defines domain entities and persistence interfaces for the drivemig migration engine.
//
// The package contains two categories of types:
//
// 1. Snapshot types: immutable views of a remote hierarchy at a point in time
//   - [Entry] : A file or folder node with its permissions
//   - [Permission] : A (principal, role) grant on an entry
//   - [Snapshot] : The validated entry set for one account
//
// 2. Migration types: derived per-entry work and its persisted form
//   - [MigrationTask] : The unit of planned work for one source entry
//   - [Run] : One migration run with aggregate counters
//   - [TaskRecord] : The durable ledger row behind a MigrationTask
//
// Snapshots are never mutated after construction; all derived state lives in
// MigrationTask and its ledger records. Persisted types implement the Model
// interface, and Repository[T] defines standard CRUD operations for ledger access.
package models
