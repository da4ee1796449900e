// Package services holds cross-cutting helpers shared by pipeline stages:
// sentinel error markers for failure classification and context annotation for
// structured logging.
//
// The sentinels separate infrastructure faults (tool failures, timeouts,
// transient persistence errors) from content judgments. Stage code wraps
// failures with the appropriate marker so the orchestrator can apply the
// fail-closed policy without inspecting error strings.
package services
