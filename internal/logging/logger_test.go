package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mastergate/internal/logging"
	"mastergate/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("pipeline started", logging.String("user_id", "user-1"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "pipeline started") {
		t.Fatalf("expected message in log output, got %q", string(data))
	}
	if !strings.Contains(string(data), "user_id=user-1") {
		t.Fatalf("expected attribute in log output, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithSubmissionID(context.Background(), 42)
	ctx = services.WithUserID(ctx, "user-9")
	ctx = services.WithStage(ctx, "measuring")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f.Key] = true
	}
	for _, want := range []string{logging.FieldSubmissionID, logging.FieldUserID, logging.FieldStage} {
		if !keys[want] {
			t.Fatalf("expected context field %s, got %v", want, keys)
		}
	}
}

func TestContextFieldsReachOutput(t *testing.T) {
	ctx := services.WithUserID(context.Background(), "user-3")
	ctx = services.WithSubmissionID(ctx, 7)
	ctx = services.WithRequestID(ctx, "req-abc")

	for _, format := range []string{"console", "json"} {
		logPath := filepath.Join(t.TempDir(), format+".log")
		logger, err := logging.New(logging.Options{
			Level:       "info",
			Format:      format,
			OutputPaths: []string{logPath},
		})
		if err != nil {
			t.Fatalf("New(%s) failed: %v", format, err)
		}

		logger.InfoContext(ctx, "claim accepted")

		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read %s log: %v", format, err)
		}
		for _, want := range []string{"user-3", "req-abc", logging.FieldUserID, logging.FieldCorrelationID, logging.FieldSubmissionID} {
			if !strings.Contains(string(data), want) {
				t.Fatalf("%s output missing %q: %q", format, want, string(data))
			}
		}
	}
}

func TestNopLoggerNeverFails(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored", logging.Error(nil))
	logger = logging.WithContext(context.Background(), nil)
	logger.Info("still ignored")
}
