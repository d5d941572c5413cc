package validation

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload rejection reasons
var (
	ErrEmptyUpload     = errors.New("uploaded file is empty")
	ErrUploadTooLarge  = errors.New("uploaded file exceeds the size limit")
	ErrUnsupportedType = errors.New("only CSV files are accepted")
)

// sniffLen is how much of a file is inspected to detect binary content
const sniffLen = 512

// FileValidator checks uploaded datasets and the directories the service writes to
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a file validator. maxBytes <= 0 disables the size check.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger.With(slog.String("component", "file_validator")),
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the configured upload size limit
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the name, size and leading bytes of an uploaded file.
func (v *FileValidator) ValidateUpload(name string, size int64, head []byte) error {
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".csv" {
		v.logger.Warn("upload rejected",
			slog.String("file", name),
			slog.String("reason", "extension"),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %q has extension %q", ErrUnsupportedType, name, ext)
	}
	if size == 0 || len(bytes.TrimSpace(head)) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyUpload, name)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("upload rejected",
			slog.String("file", name),
			slog.String("reason", "size"),
			slog.Int64("size", size),
			slog.Int64("max_size", v.maxBytes))
		return fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, size, v.maxBytes)
	}
	if !looksLikeText(head) {
		v.logger.Warn("upload rejected",
			slog.String("file", name),
			slog.String("reason", "content"),
			slog.String("detected", mimetype.Detect(head).String()))
		return fmt.Errorf("%w: %q is not a text file", ErrUnsupportedType, name)
	}
	return nil
}

// ValidateCSVFile checks a CSV on disk the way ValidateUpload checks an upload
func (v *FileValidator) ValidateCSVFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, _ := f.Read(head)

	return v.ValidateUpload(filepath.Base(path), info.Size(), head[:n])
}

// ValidateOutputDirectory ensures a directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// SniffLen is the number of leading bytes ValidateUpload needs
func SniffLen() int {
	return sniffLen
}

func looksLikeText(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
