package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

// UserHandler serves the /api/users/me endpoints.
type UserHandler struct {
	userService   services.UserService
	authService   services.AuthService
	entityService services.EntityService
}

func NewUserHandler(userService services.UserService, authService services.AuthService, entityService services.EntityService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		authService:   authService,
		entityService: entityService,
	}
}

// Me godoc
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	fresh, err := h.userService.GetByID(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, fresh)
}

// UpdateProfile godoc
// PATCH /api/users/me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

// ChangePassword godoc
// POST /api/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// UploadAvatar godoc
// POST /api/users/me/avatar
// Content-Type: multipart/form-data, field "file". Checked by the upload
// validator before this runs.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
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

	updated, err := h.userService.UploadAvatar(r.Context(), user.ID, file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

// MyEntities godoc
// GET /api/users/me/entities
func (h *UserHandler) MyEntities(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	entities, err := h.entityService.Mine(r.Context(), user)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entities)
}
