package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

// UploadURLPrefix is the public path uploaded files are served under.
const UploadURLPrefix = "/api/uploads/"

// UploadService stores files that already passed the upload validator.
type UploadService interface {
	// Save writes the file as {uuid}_{sanitized-name} and returns its URL.
	Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
	// Path resolves a served file name to a path inside the upload dir.
	// Only flat names are accepted.
	Path(name string) (string, error)
	// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
	Remove(url string)
}

type uploadService struct {
	uploadDir string
}

func NewUploadService(uploadDir string) (UploadService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &uploadService{uploadDir: uploadDir}, nil
}

func (s *uploadService) Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + "_" + sanitizeFilename(header.Filename)
	dest := filepath.Join(s.uploadDir, name)

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return UploadURLPrefix + name, nil
}

func (s *uploadService) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: file not found", pkg.ErrNotFound)
	}
	p := filepath.Join(s.uploadDir, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: file not found", pkg.ErrNotFound)
	}
	return p, nil
}

func (s *uploadService) Remove(url string) {
	name, ok := strings.CutPrefix(url, UploadURLPrefix)
	if !ok {
		return
	}
	if p, err := s.Path(name); err == nil {
		_ = os.Remove(p)
	}
}

// sanitizeFilename keeps only the base name and drops characters that are
// unsafe in paths or URLs.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)

	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "file"
	}
	if len(name) > 100 {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:100-len(ext)] + ext
	}
	return name
}
