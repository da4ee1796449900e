// Package audit records security-relevant anomalies to the submission store.
// Recording is best-effort: a persistence failure is logged and otherwise
// ignored so audit writes can never fail the gating pipeline.
package audit
