// Package gate implements the submission gating pipeline: stuck-item
// recovery, atomic claim, duplicate short-circuit, measurement, codec
// simulation, rule evaluation, and transactional finalize, with a fail-closed
// policy that resolves every error branch to a safe queue state.
package gate
