package asset

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnsupportedArchive = errors.New("unsupported archive format")

// FetchArchive downloads an archive if needed and unpacks it under destDir.
// The format is picked from the file extension (.zip, .tar.gz, .tgz, .tar).
func FetchArchive(url, archivePath, checksum, destDir string) error {
	if err := DownloadIfMissing(url, archivePath, checksum); err != nil {
		return err
	}

	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		return ExtractZip(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		return ExtractTar(archivePath, destDir, true)
	case strings.HasSuffix(archivePath, ".tar"):
		return ExtractTar(archivePath, destDir, false)
	}

	return errors.Wrap(ErrUnsupportedArchive, archivePath)
}

// ExtractZip unpacks a zip archive under destDir.
func ExtractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open archive %s", archivePath)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		target, err := sanitizePath(destDir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "unable to create %s", target)
			}

			continue
		}

		src, err := entry.Open()
		if err != nil {
			return errors.Wrapf(err, "unable to open %s in %s", entry.Name, archivePath)
		}

		err = writeEntry(target, src, entry.Mode())
		src.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

// ExtractTar unpacks a tar archive, optionally gzip-compressed, under
// destDir.
func ExtractTar(archivePath, destDir string, gzipped bool) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open archive %s", archivePath)
	}
	defer file.Close()

	var src io.Reader = file

	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return errors.Wrapf(err, "unable to decompress %s", archivePath)
		}
		defer gz.Close()

		src = gz
	}

	reader := tar.NewReader(src)

	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "unable to read archive %s", archivePath)
		}

		target, err := sanitizePath(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "unable to create %s", target)
			}
		case tar.TypeReg:
			if err := writeEntry(target, reader, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}
}

// sanitizePath rejects archive entries that would escape destDir.
func sanitizePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", errors.Errorf("archive entry %s escapes %s", name, destDir)
	}

	return target, nil
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", target)
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", target)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()

		return errors.Wrapf(err, "unable to extract %s", target)
	}

	return errors.Wrapf(dst.Close(), "unable to close %s", target)
}
