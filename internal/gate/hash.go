package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// hashFile computes the sha256 content hash used to key duplicate detection.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// HashFile exposes the submission content-hash computation for intake
// callers.
func HashFile(path string) (string, error) {
	return hashFile(path)
}
