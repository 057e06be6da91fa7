package cache

import (
	"crypto/md5" // #nosec G501 -- content fingerprint for a local cache, not a security control
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Fingerprint returns the hex MD5 digest of everything read from r.
func Fingerprint(r io.Reader) (string, error) {
	h := md5.New() // #nosec G401 -- see import note
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile streams the file at path through Fingerprint.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the document the user opened
	if err != nil {
		return "", fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()
	return Fingerprint(f)
}
