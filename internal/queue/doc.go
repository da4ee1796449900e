// Package queue persists audio submissions in SQLite and owns their lifecycle
// transitions.
//
// The Store manages database connections, schema initialization, and the
// conditional-update primitives the pipeline is built on: Claim (a
// compare-and-swap on status that makes concurrent duplicate invocations
// safe), RecoverStuck (per-user self-healing for crashed workers),
// ResetToPending (the fail-closed rollback used by every error path), and
// Finalize (an atomic terminal transition plus critical-metrics persistence).
// Codec simulation caches, security audit events, and feedback entitlements
// share the same database file.
//
// Per-user single-flight is enforced entirely by Claim's conditional update;
// no in-process locking exists anywhere in the pipeline. Treat this package
// as the single source of truth for submission semantics; when you add
// statuses or fields, update schema.sql and bump schemaVersion.
package queue
