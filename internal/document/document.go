// Package document loads candidate résumés for inline submission to the model.
package document

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jonathan/resume-auditor/internal/llm"
)

// DefaultMaxBytes caps résumé size. Gemini rejects inline payloads near 20MB, so stay well below it.
const DefaultMaxBytes = 10 << 20

// supportedMIMETypes are the document formats Gemini accepts inline.
var supportedMIMETypes = []string{
	"application/pdf",
	"text/plain",
	"image/png",
	"image/jpeg",
	"image/webp",
}

// UnreadableError reports a résumé that is missing, unreadable, or in an unsupported format.
type UnreadableError struct {
	Path    string
	Message string
	Cause   error
}

func (e *UnreadableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document %s is unreadable: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("document %s is unreadable: %s", e.Path, e.Message)
}

func (e *UnreadableError) Unwrap() error {
	return e.Cause
}

// TooLargeError reports a résumé exceeding the size cap.
type TooLargeError struct {
	Path     string
	Size     int64
	MaxBytes int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("document %s is too large: %d bytes exceeds limit of %d", e.Path, e.Size, e.MaxBytes)
}

// Load reads the résumé at path and returns it as an inline model document.
// maxBytes <= 0 uses DefaultMaxBytes.
func Load(path string, maxBytes int64) (*llm.Document, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		msg := "cannot stat file"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "file does not exist"
		}
		return nil, &UnreadableError{Path: path, Message: msg, Cause: err}
	}
	if info.IsDir() {
		return nil, &UnreadableError{Path: path, Message: "path is a directory"}
	}
	if info.Size() > maxBytes {
		return nil, &TooLargeError{Path: path, Size: info.Size(), MaxBytes: maxBytes}
	}
	if info.Size() == 0 {
		return nil, &UnreadableError{Path: path, Message: "file is empty"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnreadableError{Path: path, Message: "failed to read file", Cause: err}
	}

	mimeType, err := detect(data)
	if err != nil {
		return nil, &UnreadableError{Path: path, Message: err.Error()}
	}

	return &llm.Document{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// detect returns the bare MIME type of data if Gemini can read it inline.
func detect(data []byte) (string, error) {
	mime := mimetype.Detect(data)
	for m := mime; m != nil; m = m.Parent() {
		for _, supported := range supportedMIMETypes {
			if m.Is(supported) {
				return supported, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported document type %s", strings.TrimSpace(mime.String()))
}

// IsUnreadable reports whether err is an UnreadableError.
func IsUnreadable(err error) bool {
	var target *UnreadableError
	return errors.As(err, &target)
}

// IsTooLarge reports whether err is a TooLargeError.
func IsTooLarge(err error) bool {
	var target *TooLargeError
	return errors.As(err, &target)
}

// Staged is a document written to a private temporary directory.
type Staged struct {
	Path string
	dir  string
}

// Stage copies at most maxBytes+1 bytes from r into a fresh temp directory so an
// oversized upload is still detected by Load. Callers must defer Cleanup.
func Stage(name string, r io.Reader, maxBytes int64) (*Staged, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "resume"
	}

	dir, err := os.MkdirTemp("", "resume-auditor-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	staged := &Staged{Path: filepath.Join(dir, name), dir: dir}

	f, err := os.OpenFile(staged.Path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		staged.Cleanup()
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	if _, err := io.Copy(f, io.LimitReader(r, maxBytes+1)); err != nil {
		_ = f.Close()
		staged.Cleanup()
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}
	if err := f.Close(); err != nil {
		staged.Cleanup()
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}
	return staged, nil
}

// Cleanup removes the staging directory. It is safe to call more than once.
func (s *Staged) Cleanup() {
	if s == nil || s.dir == "" {
		return
	}
	_ = os.RemoveAll(s.dir)
	s.dir = ""
}
