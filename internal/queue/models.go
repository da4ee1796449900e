package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a submission.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusApproved,
	StatusRejected,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Decision is the terminal outcome of gating a submission.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// TerminalStatus maps a decision to the queue status it finalizes into.
func (d Decision) TerminalStatus() Status {
	if d == DecisionRejected {
		return StatusRejected
	}
	return StatusApproved
}

// Submission represents one queued audio submission persisted in SQLite.
type Submission struct {
	ID                  int64
	UserID              string
	ContentHash         string
	SourcePath          string
	Status              Status
	DecisionReason      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ProcessingStartedAt *time.Time
}

// MetricEvent is one time-located measurement event persisted alongside the
// critical metrics payload (peak excursions, silence intervals, phase samples).
type MetricEvent struct {
	Kind         string
	StartSeconds float64
	EndSeconds   float64
	Value        float64
}

// SecurityEvent is an append-only audit record for anomalous conditions.
type SecurityEvent struct {
	EventType    string
	Severity     string
	ActorID      string
	SubmissionID int64
	Reason       string
	MetadataJSON string
}

// StatsSummary describes aggregated submission counts per lifecycle state.
type StatsSummary struct {
	Total      int
	Pending    int
	Processing int
	Approved   int
	Rejected   int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status is a final gating outcome.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision returns the decision recorded by a terminal submission.
func (i Submission) Decision() (Decision, bool) {
	switch i.Status {
	case StatusApproved:
		return DecisionApproved, true
	case StatusRejected:
		return DecisionRejected, true
	default:
		return "", false
	}
}
