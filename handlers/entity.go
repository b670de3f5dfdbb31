package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

// EntityHandler serves the directory of advertisers, networks and
// affiliates. Reads are public; the optional auth middleware lets owners
// and admins see entities that are not approved yet.
type EntityHandler struct {
	entityService services.EntityService
}

func NewEntityHandler(entityService services.EntityService) *EntityHandler {
	return &EntityHandler{entityService: entityService}
}

// List godoc
// GET /api/entities?q=&type=&country=&category=&verified=&min_rating=&sort=&page=&limit=
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := models.EntityListParams{
		Query:      q.str("q"),
		Type:       models.EntityType(q.str("type")),
		Country:    q.str("country"),
		Category:   q.str("category"),
		Verified:   q.boolPtr("verified"),
		MinRating:  q.float("min_rating"),
		Sort:       q.str("sort"),
		PageParams: q.page(),
	}
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.entityService.List(r.Context(), &params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Get godoc
// GET /api/entities/{id}
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	entity, err := h.entityService.Get(r.Context(), CurrentUser(r), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entity)
}

// Rating godoc
// GET /api/entities/{id}/rating
func (h *EntityHandler) Rating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.entityService.Rating(r.Context(), CurrentUser(r), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, summary)
}

// Create godoc
// POST /api/entities
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateEntityRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	entity, err := h.entityService.Create(r.Context(), user, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, entity)
}

// Update godoc
// PATCH /api/entities/{id}
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateEntityRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	entity, err := h.entityService.Update(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entity)
}

// Delete godoc
// DELETE /api/entities/{id}
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.entityService.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "entity deleted"})
}

// UploadLogo godoc
// POST /api/entities/{id}/logo
func (h *EntityHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
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

	entity, err := h.entityService.UploadLogo(r.Context(), user, r.PathValue("id"), file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entity)
}
