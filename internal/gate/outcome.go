package gate

import "net/http"

// Machine-readable failure codes surfaced to callers. Infrastructure codes
// deliberately carry no diagnostic detail; the full cause is logged
// server-side only.
const (
	CodeUnauthorized        = "unauthorized"
	CodeAlreadyClaimed      = "already_claimed"
	CodeQueueClaimFailed    = "queue_claim_failed"
	CodeQueueLookupFailed   = "queue_lookup_failed"
	CodeDuplicateCheck      = "duplicate_check_failed"
	CodeMeasurementFailed   = "ebur128_detect_failed"
	CodeMetricsInvalid      = "private_metrics_invalid"
	CodeMetricsUpsertFailed = "private_metrics_upsert_failed"
	CodeEventsUpsertFailed  = "private_events_upsert_failed"
	CodePersistFailed       = "private_persist_failed"
	CodeWorkerUnhandled     = "worker_unhandled_error"

	ReasonDuplicateAudio = "duplicate_audio"
	ReasonIdle           = "idle"
)

// Outcome is the single response object returned per pipeline invocation.
type Outcome struct {
	OK                bool   `json:"ok"`
	Processed         bool   `json:"processed"`
	Decision          string `json:"decision,omitempty"`
	Reason            string `json:"reason,omitempty"`
	FeedbackAvailable *bool  `json:"feedback_available,omitempty"`
	QueueID           string `json:"queue_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

// HTTPStatus maps an outcome onto its transport status. Idle, already-claimed
// and terminal outcomes are all successful pipeline executions even when the
// audio itself failed gating.
func (o Outcome) HTTPStatus() int {
	switch {
	case o.Error == CodeUnauthorized:
		return http.StatusUnauthorized
	case o.Error != "":
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func unauthorizedOutcome() Outcome {
	return Outcome{OK: false, Error: CodeUnauthorized}
}

func infraOutcome(code string) Outcome {
	return Outcome{OK: false, Error: code}
}

func boolPtr(v bool) *bool { return &v }
