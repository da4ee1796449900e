package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const wavHeaderSize = 44

// WriteFile fills the target path with a synthetic audio payload of the
// requested size. Paths ending in .wav get a canonical RIFF/WAVE PCM header
// followed by sawtooth sample bytes; other extensions get the sawtooth data
// alone. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	var payload bytes.Buffer
	payload.Grow(int(size))
	if strings.EqualFold(filepath.Ext(path), ".wav") && size > wavHeaderSize {
		payload.Write(wavHeader(size - wavHeaderSize))
	}
	for int64(payload.Len()) < size {
		payload.WriteByte(byte(payload.Len() % 251))
	}

	if err := os.WriteFile(path, payload.Bytes()[:size], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// wavHeader builds a 44-byte PCM header describing mono 16-bit 44.1 kHz data.
func wavHeader(dataLen int64) []byte {
	h := make([]byte, wavHeaderSize)
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], uint32(36+dataLen))
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1)
	binary.LittleEndian.PutUint16(h[22:], 1)
	binary.LittleEndian.PutUint32(h[24:], 44100)
	binary.LittleEndian.PutUint32(h[28:], 44100*2)
	binary.LittleEndian.PutUint16(h[32:], 2)
	binary.LittleEndian.PutUint16(h[34:], 16)
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], uint32(dataLen))
	return h
}
