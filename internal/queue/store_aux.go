package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveSimulation caches a codec simulation payload for a submission. The
// result is advisory; callers treat a failure here as non-fatal.
func (s *Store) SaveSimulation(ctx context.Context, id int64, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO codec_simulations (submission_id, payload, created_at)
         VALUES (?, ?, ?)
         ON CONFLICT (submission_id) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		id,
		string(payload),
		now,
	)
	if err != nil {
		return fmt.Errorf("save simulation: %w", err)
	}
	return nil
}

// SimulationPayload returns the cached codec simulation JSON, or nil when absent.
func (s *Store) SimulationPayload(ctx context.Context, id int64) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT payload FROM codec_simulations WHERE submission_id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("simulation payload: %w", err)
	}
	return []byte(payload), nil
}

// InsertSecurityEvent appends one audit record. Callers that must never fail
// the pipeline should route through audit.Recorder, which swallows errors.
func (s *Store) InsertSecurityEvent(ctx context.Context, event SecurityEvent) error {
	if strings.TrimSpace(event.EventType) == "" {
		return errors.New("security event type is required")
	}
	severity := strings.TrimSpace(event.Severity)
	if severity == "" {
		severity = "info"
	}
	var submissionID any
	if event.SubmissionID > 0 {
		submissionID = event.SubmissionID
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO security_events (event_type, severity, actor_id, submission_id, reason, metadata, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.EventType,
		severity,
		nullableString(event.ActorID),
		submissionID,
		nullableString(event.Reason),
		nullableString(event.MetadataJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// FeedbackUnlocked reports whether metric detail may be disclosed to a user
// for a given submission.
func (s *Store) FeedbackUnlocked(ctx context.Context, userID string, submissionID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM feedback_unlocks WHERE user_id = ? AND submission_id = ?`,
		userID,
		submissionID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("feedback unlocked: %w", err)
	}
	return count > 0, nil
}

// UnlockFeedback records a feedback entitlement for (user, submission).
func (s *Store) UnlockFeedback(ctx context.Context, userID string, submissionID int64) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO feedback_unlocks (user_id, submission_id, unlocked_at)
         VALUES (?, ?, ?)
         ON CONFLICT (user_id, submission_id) DO NOTHING`,
		userID,
		submissionID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("unlock feedback: %w", err)
	}
	return nil
}
