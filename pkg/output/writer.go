package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// GzipSuffix is appended to the logical path of compressed files
const GzipSuffix = ".gz"

const fileMode os.FileMode = 0644

// FileWriter persists sitemap documents, optionally gzip-compressed.
// Callers always address files by their logical (.xml) path.
type FileWriter struct {
	log *logrus.Entry
}

// NewFileWriter creates a FileWriter that logs through log.
func NewFileWriter(log *logrus.Entry) *FileWriter {
	return &FileWriter{log: log.WithField("component", "writer")}
}

// Write stores content at path, or its gzip stream at path+".gz" when compress is set.
// The returned path is always the logical path.
// The destination is replaced atomically via a temp file in the same directory.
func (w *FileWriter) Write(path string, content []byte, compress bool) (string, error) {
	dest := path
	if compress {
		dest = path + GzipSuffix
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create directory '%s': %w", utils.ErrFilesystem, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".sitemap-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file in '%s': %w", utils.ErrFilesystem, dir, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if compress {
		err = writeGzip(tmp, content)
	} else {
		_, err = tmp.Write(content)
	}
	if err != nil {
		cleanup()
		return "", fmt.Errorf("%w: write '%s': %w", utils.ErrFilesystem, dest, err)
	}

	if err := tmp.Chmod(fileMode); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: chmod '%s': %w", utils.ErrFilesystem, tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: close '%s': %w", utils.ErrFilesystem, tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: rename to '%s': %w", utils.ErrFilesystem, dest, err)
	}

	w.log.Debugf("Wrote %s (%d bytes logical, gzip=%t)", dest, len(content), compress)
	return path, nil
}

// writeGzip compresses content into dst. The header carries no name or
// modification time so identical content yields identical bytes.
func writeGzip(dst io.Writer, content []byte) error {
	zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(content); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// ReadLogical returns the uncompressed content for a logical path, reading
// path itself first and path+".gz" otherwise.
// When neither exists the error wraps os.ErrNotExist.
func ReadLogical(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: read '%s': %w", utils.ErrFilesystem, path, err)
	}

	compressed, err := os.ReadFile(path + GzipSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: read '%s': %w", utils.ErrFilesystem, path+GzipSuffix, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: open gzip '%s': %w", utils.ErrFilesystem, path+GzipSuffix, err)
	}
	defer zr.Close()

	data, err = io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress '%s': %w", utils.ErrFilesystem, path+GzipSuffix, err)
	}
	return data, nil
}

// LogicalHash returns the SHA-256 of the logical content at path, or "" when
// no file exists under the plain or compressed name. Content is streamed.
func LogicalHash(path string) (string, error) {
	hash, err := utils.CalculateFileSHA256(path)
	if err == nil {
		return hash, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: hash '%s': %w", utils.ErrFilesystem, path, err)
	}

	f, err := os.Open(path + GzipSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: open '%s': %w", utils.ErrFilesystem, path+GzipSuffix, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: open gzip '%s': %w", utils.ErrFilesystem, path+GzipSuffix, err)
	}
	defer zr.Close()

	hash, err = utils.CalculateReaderSHA256(zr)
	if err != nil {
		return "", fmt.Errorf("%w: decompress '%s': %w", utils.ErrFilesystem, path+GzipSuffix, err)
	}
	return hash, nil
}
