package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Serve godoc
// GET /api/uploads/{file}
// Only flat file names resolve; anything with a path separator is a 404.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path, err := h.uploadService.Path(r.PathValue("file"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
