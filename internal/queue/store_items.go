package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const itemColumns = "id, user_id, content_hash, source_path, status, decision_reason, created_at, updated_at, processing_started_at"

// Enqueue inserts a new pending submission for a user.
func (s *Store) Enqueue(ctx context.Context, userID, contentHash, sourcePath string) (*Submission, error) {
	userID = strings.TrimSpace(userID)
	contentHash = strings.TrimSpace(contentHash)
	sourcePath = strings.TrimSpace(sourcePath)
	if userID == "" {
		return nil, errors.New("enqueue: user id is required")
	}
	if contentHash == "" {
		return nil, errors.New("enqueue: content hash is required")
	}
	if sourcePath == "" {
		return nil, errors.New("enqueue: source path is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO submissions (user_id, content_hash, source_path, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		contentHash,
		sourcePath,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a submission by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Submission, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM submissions WHERE id = ?`, id)
	item, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return item, nil
}

// OldestPending returns the earliest-created pending submission for a user, or
// nil when the user's queue is drained. Read-only, no side effect.
func (s *Store) OldestPending(ctx context.Context, userID string) (*Submission, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM submissions WHERE user_id = ? AND status = ? ORDER BY created_at, id LIMIT 1`,
		userID,
		StatusPending,
	)
	item, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("oldest pending: %w", err)
	}
	return item, nil
}

// FindDuplicate returns the most recent terminal submission owned by the same
// user carrying the same content hash, excluding the submission itself.
// Matching is hash-exact; a nil result means no precedent exists.
func (s *Store) FindDuplicate(ctx context.Context, userID, contentHash string, excludeID int64) (*Submission, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM submissions
         WHERE user_id = ? AND content_hash = ? AND id <> ? AND status IN (?, ?)
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
		contentHash,
		excludeID,
		StatusApproved,
		StatusRejected,
	)
	item, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate: %w", err)
	}
	return item, nil
}

// LastTerminal returns the user's most recently decided submission, or nil.
func (s *Store) LastTerminal(ctx context.Context, userID string) (*Submission, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM submissions
         WHERE user_id = ? AND status IN (?, ?)
         ORDER BY updated_at DESC, id DESC LIMIT 1`,
		userID,
		StatusApproved,
		StatusRejected,
	)
	item, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last terminal: %w", err)
	}
	return item, nil
}

// ListForUser returns a user's submissions ordered by creation time.
func (s *Store) ListForUser(ctx context.Context, userID string, statuses ...Status) ([]*Submission, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM submissions WHERE user_id = ?`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ensureContext(ctx), baseQuery+orderClause, userID)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, 0, len(statuses)+1)
		args = append(args, userID)
		for _, status := range statuses {
			args = append(args, status)
		}
		query := baseQuery + ` AND status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ensureContext(ctx), query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var items []*Submission
	for rows.Next() {
		item, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats returns a count of submissions grouped by status.
func (s *Store) Stats(ctx context.Context) (StatsSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM submissions GROUP BY status`)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("submission stats: %w", err)
	}
	defer rows.Close()

	summary := StatsSummary{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatsSummary{}, err
		}
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusProcessing:
			summary.Processing += count
		case StatusApproved:
			summary.Approved += count
		case StatusRejected:
			summary.Rejected += count
		}
	}
	return summary, rows.Err()
}

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*Submission, error) {
	var (
		id             int64
		userID         string
		contentHash    string
		sourcePath     string
		statusStr      string
		decisionReason sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
		processingRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&contentHash,
		&sourcePath,
		&statusStr,
		&decisionReason,
		&createdRaw,
		&updatedRaw,
		&processingRaw,
	); err != nil {
		return nil, err
	}

	item := &Submission{
		ID:             id,
		UserID:         userID,
		ContentHash:    contentHash,
		SourcePath:     sourcePath,
		Status:         Status(statusStr),
		DecisionReason: decisionReason.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if processingRaw.Valid {
		if started, err := parseTimeString(processingRaw.String); err == nil {
			item.ProcessingStartedAt = &started
		}
	}
	return item, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
