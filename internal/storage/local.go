// Package storage lays out session files under the upload root.
package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"
)

// Fixed names of the revisions kept per session.
const (
	CorrectedName = "corrected.pdf"
	CommentedName = "commented.pdf"
	uploadDir     = "upload"
)

// LocalStore keeps one directory per session:
//
//	<root>/<session>/upload/<original name>
//	<root>/<session>/corrected.pdf
//	<root>/<session>/commented.pdf
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.NewInternalError("resolve upload root", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, apperrors.NewInternalError("create upload root", err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string { return s.root }

// SessionDir returns the directory of a session without creating it.
func (s *LocalStore) SessionDir(sessionID string) string {
	return filepath.Join(s.root, SanitizeFilename(sessionID))
}

// SaveUpload copies at most limit bytes of file into the session's upload
// directory. Reading more than limit fails with domain.ErrFileTooLarge and an
// empty body with domain.ErrEmptyFile; nothing is left on disk in either case.
func (s *LocalStore) SaveUpload(sessionID, filename string, file io.Reader, limit int64) (string, error) {
	dir := filepath.Join(s.SessionDir(sessionID), uploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.NewInternalError("create session directory", err)
	}
	path := filepath.Join(dir, SanitizeFilename(filename))

	out, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewInternalError("create upload file", err)
	}

	reader := file
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	n, err := io.Copy(out, reader)
	closeErr := out.Close()

	switch {
	case err != nil:
		err = apperrors.NewInternalError("store upload", err)
	case closeErr != nil:
		err = apperrors.NewInternalError("store upload", closeErr)
	case n == 0:
		err = domain.ErrEmptyFile
	case limit > 0 && n > limit:
		err = domain.ErrFileTooLarge
	}
	if err != nil {
		s.Remove(sessionID)
		return "", err
	}
	return path, nil
}

// OutputPath is the fixed path of a named revision of a session.
func (s *LocalStore) OutputPath(sessionID, name string) string {
	return filepath.Join(s.SessionDir(sessionID), name)
}

// Ref turns an absolute path under the root into the slash-separated
// reference served over HTTP.
func (s *LocalStore) Ref(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Resolve maps a reference back to a file under the root. References that
// escape the root are rejected with domain.ErrInvalidPath.
func (s *LocalStore) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.ContainsRune(ref, 0) || filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return "", domain.ErrInvalidPath
	}
	for _, part := range strings.Split(filepath.ToSlash(ref), "/") {
		if part == ".." {
			return "", domain.ErrInvalidPath
		}
	}

	path := filepath.Join(s.root, filepath.FromSlash(ref))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", domain.ErrInvalidPath
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperrors.NewNotFoundError("File not found.")
	}
	return path, nil
}

// Remove deletes every file of a session.
func (s *LocalStore) Remove(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.ErrInvalidPath
	}
	return os.RemoveAll(s.SessionDir(sessionID))
}

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'. Leading dots are dropped.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" || strings.Trim(out, "_") == "" {
		return "document"
	}
	return out
}

// WriteFileAtomic writes data next to path and renames it into place. On
// failure path is left as it was.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewSerializationError("create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewSerializationError("create temporary file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return apperrors.NewSerializationError("write revision", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return apperrors.NewSerializationError("close revision", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return apperrors.NewSerializationError("replace revision", err)
	}
	return nil
}
