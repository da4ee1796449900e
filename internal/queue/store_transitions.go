package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Claim performs the conditional transition pending -> processing, guarded by
// an equality check on the current status at update time. It returns true only
// when this call performed the transition; a false result with a nil error
// means another concurrent invocation won the race, which is not a fault.
func (s *Store) Claim(ctx context.Context, id int64, userID string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE submissions
         SET status = ?, processing_started_at = ?, updated_at = ?
         WHERE id = ? AND user_id = ? AND status = ?`,
		StatusProcessing,
		now,
		now,
		id,
		userID,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// RecoverStuck resets the user's processing submissions whose processing start
// predates the staleness cutoff back to pending. Scoped to a single user; it
// never scans or mutates other tenants' items.
func (s *Store) RecoverStuck(ctx context.Context, userID string, staleAfter time.Duration) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-staleAfter)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE submissions
         SET status = ?, processing_started_at = NULL, updated_at = ?
         WHERE user_id = ? AND status = ? AND processing_started_at IS NOT NULL AND processing_started_at < ?`,
		StatusPending,
		now.Format(time.RFC3339Nano),
		userID,
		StatusProcessing,
		cutoff.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recover stuck submissions: %w", err)
	}
	return res.RowsAffected()
}

// ResetToPending unconditionally rolls a submission back to pending. Used by
// every fail-closed error path; resetting an already-pending item is a no-op
// in effect, so callers may invoke it without checking current state.
func (s *Store) ResetToPending(ctx context.Context, id int64, userID string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE submissions
         SET status = ?, processing_started_at = NULL, decision_reason = NULL, updated_at = ?
         WHERE id = ? AND user_id = ? AND status NOT IN (?, ?)`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		userID,
		StatusApproved,
		StatusRejected,
	)
	if err != nil {
		return fmt.Errorf("reset submission: %w", err)
	}
	return nil
}

// Finalize atomically transitions processing -> approved|rejected and persists
// the critical metrics payload plus measurement events in the same
// transaction. On any failure the submission is left untouched (the
// transaction rolls back); it is the caller's job to route to ResetToPending
// so the item never lingers in processing.
func (s *Store) Finalize(ctx context.Context, id int64, userID string, decision Decision, reason string, metricsJSON []byte, events []MetricEvent) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE submissions
         SET status = ?, decision_reason = ?, processing_started_at = NULL, updated_at = ?
         WHERE id = ? AND user_id = ? AND status = ?`,
		decision.TerminalStatus(),
		nullableString(strings.TrimSpace(reason)),
		now,
		id,
		userID,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("finalize status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: submission %d", ErrNotProcessing, id)
	}

	if len(metricsJSON) > 0 {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO gate_metrics (submission_id, payload, created_at, updated_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT (submission_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
			id,
			string(metricsJSON),
			now,
			now,
		); err != nil {
			return fmt.Errorf("%w: %w", ErrMetricsPersist, err)
		}
	}

	if len(events) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM gate_events WHERE submission_id = ?`, id); err != nil {
			return fmt.Errorf("%w: clear prior events: %w", ErrEventsPersist, err)
		}
		for _, event := range events {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO gate_events (submission_id, kind, start_seconds, end_seconds, value, created_at)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				id,
				event.Kind,
				event.StartSeconds,
				event.EndSeconds,
				event.Value,
				now,
			); err != nil {
				return fmt.Errorf("%w: %w", ErrEventsPersist, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// MetricsPayload returns the persisted critical metrics JSON for a submission.
func (s *Store) MetricsPayload(ctx context.Context, id int64) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT payload FROM gate_metrics WHERE submission_id = ?`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}
