package middleware

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

// ImageTypes are accepted for avatars and entity logos.
var ImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// DocumentTypes are accepted for verification documents.
var DocumentTypes = append(append([]string{}, ImageTypes...), "application/pdf")

// UploadValidator checks a multipart upload before the handler sees it.
// Handlers read the file again with r.FormFile(Field); the parsed form is
// cached on the request.
type UploadValidator struct {
	MaxSize      int64
	AllowedTypes []string
	Field        string
}

func (v UploadValidator) field() string {
	if v.Field == "" {
		return "file"
	}
	return v.Field
}

func (v UploadValidator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := v.check(w, r); err != nil {
			pkg.Error(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (v UploadValidator) check(w http.ResponseWriter, r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return fmt.Errorf("%w: multipart/form-data required", pkg.ErrBadRequest)
	}

	// Room for the other form fields and multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, v.MaxSize+1<<20)
	if err := r.ParseMultipartForm(v.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return v.tooLarge()
		}
		return fmt.Errorf("%w: failed to parse multipart form", pkg.ErrBadRequest)
	}

	file, header, err := r.FormFile(v.field())
	if err != nil {
		return fmt.Errorf("%w: %s field is required", pkg.ErrBadRequest, v.field())
	}
	defer file.Close()

	if header.Size > v.MaxSize {
		return v.tooLarge()
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unreadable file", pkg.ErrBadRequest)
	}
	if n == 0 {
		return fmt.Errorf("%w: file is empty", pkg.ErrBadRequest)
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(head[:n]))
	if !v.allowed(sniffed) {
		return fmt.Errorf("%w: file type %s is not allowed (allowed: %s)",
			pkg.ErrBadRequest, sniffed, strings.Join(v.AllowedTypes, ", "))
	}
	return nil
}

func (v UploadValidator) allowed(contentType string) bool {
	for _, t := range v.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func (v UploadValidator) tooLarge() error {
	return fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrPayloadTooLarge, v.MaxSize>>20)
}
