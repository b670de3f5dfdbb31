package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

type VerificationHandler struct {
	verificationService services.VerificationService
}

func NewVerificationHandler(verificationService services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}

// Submit godoc
// POST /api/verification
// Content-Type: multipart/form-data
// Fields: file, full_name, document_type, document_number, entity_id (optional)
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	req := models.SubmitVerificationRequest{
		EntityID:       r.FormValue("entity_id"),
		FullName:       r.FormValue("full_name"),
		DocumentType:   models.DocumentType(r.FormValue("document_type")),
		DocumentNumber: r.FormValue("document_number"),
	}

	v, err := h.verificationService.Submit(r.Context(), user, &req, file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, v)
}

// Mine godoc
// GET /api/verification/me
func (h *VerificationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.verificationService.Mine(r.Context(), user)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, list)
}
