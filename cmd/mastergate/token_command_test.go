package main

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"mastergate/internal/auth"
	"mastergate/internal/queue"
	"mastergate/internal/testsupport"
)

func TestTokenCommandIssuesValidToken(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"token", "--user", "artist-a"}, env.configPath)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	signed := strings.TrimSpace(out)
	if signed == "" {
		t.Fatal("expected token on stdout")
	}

	tokens, err := auth.New(env.cfg)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	userID, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if userID != "artist-a" {
		t.Fatalf("expected subject artist-a, got %q", userID)
	}
}

func TestTokenCommandRequiresUser(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"token"}, env.configPath); err == nil {
		t.Fatal("expected error without --user")
	}
}

func TestUnlockCommandFlipsFeedbackFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item := testsupport.Enqueue(t, env.store, "artist-a", "hash-a", filepath.Join(env.baseDir, "a.wav"))
	testsupport.MustClaim(t, env.store, item.ID, "artist-a")
	if err := env.store.Finalize(ctx, item.ID, "artist-a", queue.DecisionRejected, "too hot", []byte(`{}`), nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	idArg := []string{"unlock", "--user", "artist-a", "--id", strconv.FormatInt(item.ID, 10)}
	out, _, err := runCLI(t, idArg, env.configPath)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	requireContains(t, out, "Feedback unlocked")

	unlocked, err := env.store.FeedbackUnlocked(ctx, "artist-a", item.ID)
	if err != nil {
		t.Fatalf("feedback unlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("expected feedback to be unlocked")
	}
}

func TestUnlockCommandRejectsForeignSubmission(t *testing.T) {
	env := setupCLITestEnv(t)

	item := testsupport.Enqueue(t, env.store, "artist-a", "hash-a", filepath.Join(env.baseDir, "a.wav"))

	args := []string{"unlock", "--user", "artist-b", "--id", strconv.FormatInt(item.ID, 10)}
	if _, _, err := runCLI(t, args, env.configPath); err == nil {
		t.Fatal("expected error unlocking another user's submission")
	}
}
