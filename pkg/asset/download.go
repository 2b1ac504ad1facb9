// Package asset fetches and unpacks dataset archives. Downloads are
// checksum-verified and idempotent, so an experiment can always re-run its
// data pull step.
package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

var ErrChecksumMismatch = errors.New("checksum mismatch")

// Download fetches url into filePath, writing a progress bar to stderr.
// Parent directories are created as needed.
func Download(url, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", filePath)
	}

	resp, err := http.Get(url)
	if err != nil {
		return errors.Wrapf(err, "unable to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unable to fetch %s: %s", url, resp.Status)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", filePath)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength,
		fmt.Sprintf("%s (%s)", filepath.Base(filePath), humanize.Bytes(uint64(max64(resp.ContentLength, 0)))))

	_, err = io.Copy(io.MultiWriter(file, bar), resp.Body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(filePath)

		return errors.Wrapf(err, "unable to download %s", url)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", filePath)
}

// DownloadIfMissing fetches url into filePath unless a file with the right
// checksum already exists. An empty checksum skips verification.
func DownloadIfMissing(url, filePath, checksum string) error {
	if fileExists(filePath) {
		if checksum == "" {
			return nil
		}
		if err := ValidateChecksum(filePath, checksum); err == nil {
			return nil
		}
		// Corrupt leftover was removed by ValidateChecksum, fall through.
	}

	if err := Download(url, filePath); err != nil {
		return err
	}

	if checksum == "" {
		return nil
	}

	return ValidateChecksum(filePath, checksum)
}

// ValidateChecksum compares the sha256 of the file against the expected hex
// digest and deletes the file on mismatch, so the next attempt re-downloads
// instead of tripping over a corrupt archive.
func ValidateChecksum(filePath, checksum string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", filePath)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return errors.Wrapf(err, "unable to hash %s", filePath)
	}

	got := hex.EncodeToString(hash.Sum(nil))
	if got != checksum {
		_ = os.Remove(filePath)

		return errors.Wrapf(ErrChecksumMismatch, "%s: got %s, want %s (file removed)", filePath, got, checksum)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}
