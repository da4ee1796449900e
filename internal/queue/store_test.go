package queue_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"mastergate/internal/queue"
	"mastergate/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.Enqueue(ctx, "user-1", "hash-1", "/audio/one.wav")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected submission ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.ContentHash != "hash-1" {
		t.Fatalf("unexpected fetched submission: %#v", fetched)
	}
}

func TestEnqueueRequiresIdentityAndHash(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.Enqueue(ctx, "", "hash", "/audio/a.wav"); err == nil {
		t.Fatal("expected error when user id missing")
	}
	if _, err := store.Enqueue(ctx, "user-1", "", "/audio/a.wav"); err == nil {
		t.Fatal("expected error when content hash missing")
	}
	if _, err := store.Enqueue(ctx, "user-1", "hash", ""); err == nil {
		t.Fatal("expected error when source path missing")
	}
}

func TestOldestPendingOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.Enqueue(t, store, "user-1", "hash-a", "/audio/a.wav")
	testsupport.Enqueue(t, store, "user-1", "hash-b", "/audio/b.wav")
	testsupport.Enqueue(t, store, "user-2", "hash-c", "/audio/c.wav")

	oldest, err := store.OldestPending(ctx, "user-1")
	if err != nil {
		t.Fatalf("OldestPending failed: %v", err)
	}
	if oldest == nil || oldest.ID != first.ID {
		t.Fatalf("expected first enqueued submission, got %#v", oldest)
	}

	none, err := store.OldestPending(ctx, "user-3")
	if err != nil {
		t.Fatalf("OldestPending failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected empty queue for unknown user, got %#v", none)
	}
}

func TestClaimIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-claim", "/audio/claim.wav")

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]bool, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot], errs[slot] = store.Claim(ctx, item.ID, "user-1")
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("claim attempt %d errored: %v", i, errs[i])
		}
		if results[i] {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one successful claim, got %d", winners)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusProcessing {
		t.Fatalf("expected processing status, got %s", fetched.Status)
	}
	if fetched.ProcessingStartedAt == nil {
		t.Fatal("expected processing start timestamp to be set")
	}
}

func TestClaimRejectsWrongOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-own", "/audio/own.wav")

	claimed, err := store.Claim(ctx, item.ID, "user-2")
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claimed {
		t.Fatal("expected claim by non-owner to be refused")
	}
}

func TestRecoverStuckScopedToUserAndStaleness(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.Enqueue(t, store, "user-1", "hash-stale", "/audio/stale.wav")
	other := testsupport.Enqueue(t, store, "user-2", "hash-other", "/audio/other.wav")
	testsupport.MustClaim(t, store, stale.ID, "user-1")
	testsupport.MustClaim(t, store, other.ID, "user-2")

	// Fresh processing items survive a long staleness window.
	recovered, err := store.RecoverStuck(ctx, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("RecoverStuck failed: %v", err)
	}
	if recovered != 0 {
		t.Fatalf("expected no recovery inside staleness window, got %d", recovered)
	}

	time.Sleep(50 * time.Millisecond)

	recovered, err = store.RecoverStuck(ctx, "user-1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("RecoverStuck failed: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected one recovered submission, got %d", recovered)
	}

	reset, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reset.Status != queue.StatusPending || reset.ProcessingStartedAt != nil {
		t.Fatalf("expected stale item reset to pending, got %#v", reset)
	}

	// Another user's processing item is untouched.
	untouched, err := store.GetByID(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusProcessing {
		t.Fatalf("expected other tenant's item untouched, got %s", untouched.Status)
	}
}

func TestResetToPendingIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-reset", "/audio/reset.wav")
	testsupport.MustClaim(t, store, item.ID, "user-1")

	if err := store.ResetToPending(ctx, item.ID, "user-1"); err != nil {
		t.Fatalf("ResetToPending failed: %v", err)
	}
	if err := store.ResetToPending(ctx, item.ID, "user-1"); err != nil {
		t.Fatalf("second ResetToPending failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", fetched.Status)
	}
}

func TestResetToPendingNeverReopensTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-final", "/audio/final.wav")
	testsupport.MustClaim(t, store, item.ID, "user-1")
	if err := store.Finalize(ctx, item.ID, "user-1", queue.DecisionApproved, "", nil, nil); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if err := store.ResetToPending(ctx, item.ID, "user-1"); err != nil {
		t.Fatalf("ResetToPending failed: %v", err)
	}
	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusApproved {
		t.Fatalf("terminal decision must be immutable, got %s", fetched.Status)
	}
}

func TestFinalizePersistsMetricsAndEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-metrics", "/audio/metrics.wav")
	testsupport.MustClaim(t, store, item.ID, "user-1")

	payload, err := json.Marshal(map[string]float64{"integrated_lufs": -15.2, "true_peak_dbtp": -1.4})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	events := []queue.MetricEvent{
		{Kind: "silence", StartSeconds: 1.5, EndSeconds: 4.0},
		{Kind: "true_peak", StartSeconds: 10.2, Value: -0.4},
	}

	if err := store.Finalize(ctx, item.ID, "user-1", queue.DecisionApproved, "", payload, events); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusApproved {
		t.Fatalf("expected approved, got %s", fetched.Status)
	}
	if fetched.ProcessingStartedAt != nil {
		t.Fatal("expected processing timestamp cleared")
	}

	saved, err := store.MetricsPayload(ctx, item.ID)
	if err != nil {
		t.Fatalf("MetricsPayload failed: %v", err)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(saved, &decoded); err != nil {
		t.Fatalf("unmarshal saved payload: %v", err)
	}
	if decoded["integrated_lufs"] != -15.2 {
		t.Fatalf("unexpected persisted metrics: %#v", decoded)
	}
}

func TestFinalizeRequiresProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-conflict", "/audio/conflict.wav")

	err := store.Finalize(ctx, item.ID, "user-1", queue.DecisionRejected, "loudness", nil, nil)
	if err == nil {
		t.Fatal("expected finalize of a pending item to fail")
	}

	fetched, getErr := store.GetByID(ctx, item.ID)
	if getErr != nil {
		t.Fatalf("GetByID failed: %v", getErr)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("failed finalize must not move the item, got %s", fetched.Status)
	}
}

func TestFindDuplicateIsHashExact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	prior := testsupport.Enqueue(t, store, "user-1", "hash-dup", "/audio/dup1.wav")
	testsupport.MustClaim(t, store, prior.ID, "user-1")
	if err := store.Finalize(ctx, prior.ID, "user-1", queue.DecisionRejected, "true_peak", nil, nil); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	fresh := testsupport.Enqueue(t, store, "user-1", "hash-dup", "/audio/dup2.wav")
	similar := testsupport.Enqueue(t, store, "user-1", "hash-dup-2", "/audio/similar.wav")

	match, err := store.FindDuplicate(ctx, "user-1", fresh.ContentHash, fresh.ID)
	if err != nil {
		t.Fatalf("FindDuplicate failed: %v", err)
	}
	if match == nil || match.ID != prior.ID {
		t.Fatalf("expected hash-exact precedent, got %#v", match)
	}

	noMatch, err := store.FindDuplicate(ctx, "user-1", similar.ContentHash, similar.ID)
	if err != nil {
		t.Fatalf("FindDuplicate failed: %v", err)
	}
	if noMatch != nil {
		t.Fatalf("different hashes must never match, got %#v", noMatch)
	}

	// Another user's identical audio is not a duplicate for this user.
	crossTenant, err := store.FindDuplicate(ctx, "user-2", "hash-dup", 0)
	if err != nil {
		t.Fatalf("FindDuplicate failed: %v", err)
	}
	if crossTenant != nil {
		t.Fatalf("duplicate detection must be per-user, got %#v", crossTenant)
	}
}

func TestFindDuplicateIgnoresNonTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.Enqueue(t, store, "user-1", "hash-open", "/audio/open1.wav")
	fresh := testsupport.Enqueue(t, store, "user-1", "hash-open", "/audio/open2.wav")

	match, err := store.FindDuplicate(ctx, "user-1", fresh.ContentHash, fresh.ID)
	if err != nil {
		t.Fatalf("FindDuplicate failed: %v", err)
	}
	if match != nil {
		t.Fatalf("pending submissions carry no precedent, got %#v", match)
	}
}

func TestLastTerminalPrefersNewestDecision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		item := testsupport.Enqueue(t, store, "user-1", fmt.Sprintf("hash-%d", i), "/audio/x.wav")
		testsupport.MustClaim(t, store, item.ID, "user-1")
		decision := queue.DecisionApproved
		if i == 1 {
			decision = queue.DecisionRejected
		}
		if err := store.Finalize(ctx, item.ID, "user-1", decision, "", nil, nil); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	last, err := store.LastTerminal(ctx, "user-1")
	if err != nil {
		t.Fatalf("LastTerminal failed: %v", err)
	}
	if last == nil || last.Status != queue.StatusRejected {
		t.Fatalf("expected the most recent decision, got %#v", last)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.Enqueue(t, store, "user-1", "hash-s1", "/audio/s1.wav")
	claimed := testsupport.Enqueue(t, store, "user-1", "hash-s2", "/audio/s2.wav")
	testsupport.MustClaim(t, store, claimed.ID, "user-1")

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Processing != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestSimulationPayloadRoundtrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.Enqueue(t, store, "user-1", "hash-sim", "/audio/sim.wav")

	if payload, err := store.SimulationPayload(ctx, item.ID); err != nil || payload != nil {
		t.Fatalf("expected no cached simulation, got %v / %v", payload, err)
	}
	if err := store.SaveSimulation(ctx, item.ID, []byte(`{"aggregate_risk":"low"}`)); err != nil {
		t.Fatalf("SaveSimulation failed: %v", err)
	}
	payload, err := store.SimulationPayload(ctx, item.ID)
	if err != nil {
		t.Fatalf("SimulationPayload failed: %v", err)
	}
	if string(payload) != `{"aggregate_risk":"low"}` {
		t.Fatalf("unexpected cached payload: %s", payload)
	}
}

func TestFeedbackUnlockRoundtrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	unlocked, err := store.FeedbackUnlocked(ctx, "user-1", 7)
	if err != nil {
		t.Fatalf("FeedbackUnlocked failed: %v", err)
	}
	if unlocked {
		t.Fatal("expected feedback locked by default")
	}

	if err := store.UnlockFeedback(ctx, "user-1", 7); err != nil {
		t.Fatalf("UnlockFeedback failed: %v", err)
	}
	if err := store.UnlockFeedback(ctx, "user-1", 7); err != nil {
		t.Fatalf("repeat UnlockFeedback failed: %v", err)
	}

	unlocked, err = store.FeedbackUnlocked(ctx, "user-1", 7)
	if err != nil {
		t.Fatalf("FeedbackUnlocked failed: %v", err)
	}
	if !unlocked {
		t.Fatal("expected feedback unlocked after grant")
	}
}

func TestInsertSecurityEvent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	err := store.InsertSecurityEvent(ctx, queue.SecurityEvent{
		EventType:    "content_hash_mismatch",
		Severity:     "warning",
		ActorID:      "user-1",
		SubmissionID: 3,
		Reason:       "submitted hash does not match stored audio",
	})
	if err != nil {
		t.Fatalf("InsertSecurityEvent failed: %v", err)
	}

	if err := store.InsertSecurityEvent(ctx, queue.SecurityEvent{}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}
