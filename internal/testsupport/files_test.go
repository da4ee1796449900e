package testsupport_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"mastergate/internal/testsupport"
)

func TestWriteFileEmitsWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.wav")
	testsupport.WriteFile(t, path, 256)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if len(data) != 256 {
		t.Fatalf("fixture size = %d, want 256", len(data))
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("expected RIFF/WAVE header, got %q", data[:12])
	}
}

func TestWriteFileOtherExtensionsHaveNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.bin")
	testsupport.WriteFile(t, path, 64)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("fixture size = %d, want 64", len(data))
	}
	if bytes.HasPrefix(data, []byte("RIFF")) {
		t.Fatal("non-wav fixture must not carry a RIFF header")
	}
}

func TestWriteFileDistinctSizesHashDifferently(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	testsupport.WriteFile(t, a, 100)
	testsupport.WriteFile(t, b, 200)

	dataA, _ := os.ReadFile(a)
	dataB, _ := os.ReadFile(b)
	if bytes.Equal(dataA, dataB) {
		t.Fatal("fixtures of different sizes must differ")
	}
}
