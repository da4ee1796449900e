package queue_test

import (
	"testing"

	"mastergate/internal/queue"
)

func TestParseStatus(t *testing.T) {
	for _, status := range queue.AllStatuses() {
		parsed, ok := queue.ParseStatus(string(status))
		if !ok {
			t.Fatalf("ParseStatus(%q) not recognized", status)
		}
		if parsed != status {
			t.Fatalf("ParseStatus(%q) = %q", status, parsed)
		}
	}
	if _, ok := queue.ParseStatus("archived"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	cases := map[queue.Status]bool{
		queue.StatusPending:    false,
		queue.StatusProcessing: false,
		queue.StatusApproved:   true,
		queue.StatusRejected:   true,
	}
	for status, terminal := range cases {
		if got := status.IsTerminal(); got != terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, terminal)
		}
	}
}

func TestDecisionTerminalStatus(t *testing.T) {
	if queue.DecisionApproved.TerminalStatus() != queue.StatusApproved {
		t.Fatal("approved decision must map to approved status")
	}
	if queue.DecisionRejected.TerminalStatus() != queue.StatusRejected {
		t.Fatal("rejected decision must map to rejected status")
	}
}

func TestSubmissionDecision(t *testing.T) {
	item := &queue.Submission{Status: queue.StatusApproved}
	decision, ok := item.Decision()
	if !ok || decision != queue.DecisionApproved {
		t.Fatalf("unexpected decision: %v %v", decision, ok)
	}
	item.Status = queue.StatusProcessing
	if _, ok := item.Decision(); ok {
		t.Fatal("non-terminal submission must not report a decision")
	}
}
