package main

import (
	"context"
	"path/filepath"
	"testing"

	"mastergate/internal/queue"
	"mastergate/internal/testsupport"
)

func TestSubmitEnqueuesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	source := filepath.Join(env.baseDir, "master.wav")
	testsupport.WriteFile(t, source, 2048)

	out, _, err := runCLI(t, []string{"submit", source, "--user", "artist-a"}, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Enqueued submission")

	items, err := env.store.ListForUser(ctx, "artist-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(items))
	}
	if items[0].Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", items[0].Status)
	}
	if items[0].ContentHash == "" {
		t.Fatal("expected computed content hash")
	}
}

func TestSubmitHonorsProvidedHash(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	source := filepath.Join(env.baseDir, "master.wav")
	testsupport.WriteFile(t, source, 512)

	args := []string{"submit", source, "--user", "artist-a", "--hash", "precomputed"}
	if _, _, err := runCLI(t, args, env.configPath); err != nil {
		t.Fatalf("submit: %v", err)
	}

	items, err := env.store.ListForUser(ctx, "artist-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ContentHash != "precomputed" {
		t.Fatalf("expected stored hash precomputed, got %+v", items)
	}
}

func TestSubmitFailsOnMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	missing := filepath.Join(env.baseDir, "missing.wav")
	if _, _, err := runCLI(t, []string{"submit", missing, "--user", "artist-a"}, env.configPath); err == nil {
		t.Fatal("expected error hashing a missing file")
	}
}
