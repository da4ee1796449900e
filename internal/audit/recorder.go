package audit

import (
	"context"
	"log/slog"

	"mastergate/internal/logging"
	"mastergate/internal/queue"
)

// Sink is the storage surface the recorder writes to.
type Sink interface {
	InsertSecurityEvent(ctx context.Context, event queue.SecurityEvent) error
}

// Recorder appends security events on a best-effort basis. Audit persistence
// must never fail the gating pipeline, so every record method swallows the
// storage error after logging it.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
}

// NewRecorder wires a recorder to its sink. A nil logger falls back to a
// no-op logger.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logging.NewComponentLogger(logger, "audit")}
}

// RecordHashMismatch notes a submission whose stored content hash does not
// match the audio on disk.
func (r *Recorder) RecordHashMismatch(ctx context.Context, userID string, submissionID int64, reason string) {
	r.record(ctx, queue.SecurityEvent{
		EventType:    "content_hash_mismatch",
		Severity:     "warning",
		ActorID:      userID,
		SubmissionID: submissionID,
		Reason:       reason,
	})
}

// RecordUnauthorizedClaim notes an attempt to act on a submission that the
// caller does not own.
func (r *Recorder) RecordUnauthorizedClaim(ctx context.Context, userID string, submissionID int64) {
	r.record(ctx, queue.SecurityEvent{
		EventType:    "unauthorized_claim",
		Severity:     "warning",
		ActorID:      userID,
		SubmissionID: submissionID,
		Reason:       "caller does not own the target submission",
	})
}

// RecordAuthRejected notes a request that failed bearer-token validation.
func (r *Recorder) RecordAuthRejected(ctx context.Context, remoteAddr, reason string) {
	r.record(ctx, queue.SecurityEvent{
		EventType: "auth_rejected",
		Severity:  "info",
		ActorID:   remoteAddr,
		Reason:    reason,
	})
}

func (r *Recorder) record(ctx context.Context, event queue.SecurityEvent) {
	if r == nil || r.sink == nil {
		return
	}
	if err := r.sink.InsertSecurityEvent(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "security event not persisted",
			logging.String("event_type", event.EventType),
			logging.Error(err))
	}
}
