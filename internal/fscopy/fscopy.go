// Package fscopy provides the byte-for-byte copy primitive for master
// frames. Paths are plain strings so callers stay agnostic to any path
// representation.
package fscopy

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sum returns the hex-encoded SHA-256 digest of the file at path.
func Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fscopy: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fscopy: digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Same reports whether dst exists with content identical to src. A
// missing dst is simply "not same", not an error.
func Same(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("fscopy: stat %s: %w", dst, err)
	}
	srcSum, err := Sum(src)
	if err != nil {
		return false, err
	}
	dstSum, err := Sum(dst)
	if err != nil {
		return false, err
	}
	return srcSum == dstSum, nil
}

// Copy writes the bytes of src to dst through a temp file and rename,
// creating parent directories as needed. The source is left untouched.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fscopy: open %s: %w", src, err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fscopy: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".blinkcopy-tmp-*")
	if err != nil {
		return fmt.Errorf("fscopy: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("fscopy: copy %s: %w", src, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fscopy: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fscopy: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("fscopy: rename: %w", err)
	}
	success = true
	return nil
}
