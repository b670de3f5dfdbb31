package handlers

import (
	"context"
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

// AdminHandler serves /api/admin. Every route sits behind the auth and
// admin middlewares.
type AdminHandler struct {
	adminService        services.AdminService
	verificationService services.VerificationService
}

func NewAdminHandler(adminService services.AdminService, verificationService services.VerificationService) *AdminHandler {
	return &AdminHandler{
		adminService:        adminService,
		verificationService: verificationService,
	}
}

// Dashboard godoc
// GET /api/admin/stats
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, stats)
}

// ListUsers godoc
// GET /api/admin/users?q=&role=&page=&limit=
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := models.UserListParams{
		Query:      q.str("q"),
		Role:       models.Role(q.str("role")),
		PageParams: q.page(),
	}
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.adminService.ListUsers(r.Context(), &params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// ChangeRole godoc
// PATCH /api/admin/users/{id}/role
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.ChangeRoleRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	user, err := h.adminService.ChangeRole(r.Context(), admin, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

// Ban godoc
// POST /api/admin/users/{id}/ban
func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.BanRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	ban, err := h.adminService.Ban(r.Context(), admin, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, ban)
}

// Unban godoc
// DELETE /api/admin/bans/{id}
func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.adminService.Unban(r.Context(), admin, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unbanned"})
}

// ListBans godoc
// GET /api/admin/bans
func (h *AdminHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := h.adminService.ListBans(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, bans)
}

// PendingEntities godoc
// GET /api/admin/entities/pending?page=&limit=
func (h *AdminHandler) PendingEntities(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := q.page()
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.adminService.PendingEntities(r.Context(), params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// ApproveEntity godoc
// POST /api/admin/entities/{id}/approve
func (h *AdminHandler) ApproveEntity(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	entity, err := h.adminService.ApproveEntity(r.Context(), admin, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entity)
}

// RejectEntity godoc
// POST /api/admin/entities/{id}/reject
// Body: { "reason": "..." }
func (h *AdminHandler) RejectEntity(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.RejectRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	entity, err := h.adminService.RejectEntity(r.Context(), admin, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, entity)
}

// ReportedReviews godoc
// GET /api/admin/reviews/reported?page=&limit=
func (h *AdminHandler) ReportedReviews(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := q.page()
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.adminService.ReportedReviews(r.Context(), params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// SetReviewStatus godoc
// PATCH /api/admin/reviews/{id}/status
// Body: { "status": "published" | "hidden" }
func (h *AdminHandler) SetReviewStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.ReviewStatusRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	review, err := h.adminService.SetReviewStatus(r.Context(), admin, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, review)
}

// ListVerifications godoc
// GET /api/admin/verifications?status=&page=&limit=
func (h *AdminHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := models.VerificationListParams{
		Status:     models.VerificationStatus(q.str("status")),
		PageParams: q.page(),
	}
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.verificationService.List(r.Context(), &params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// ApproveVerification godoc
// POST /api/admin/verifications/{id}/approve
// Body (optional): { "note": "..." }
func (h *AdminHandler) ApproveVerification(w http.ResponseWriter, r *http.Request) {
	h.decideVerification(w, r, h.verificationService.Approve)
}

// RejectVerification godoc
// POST /api/admin/verifications/{id}/reject
// Body: { "note": "..." }
func (h *AdminHandler) RejectVerification(w http.ResponseWriter, r *http.Request) {
	h.decideVerification(w, r, h.verificationService.Reject)
}

type verificationDecision func(ctx context.Context, admin *models.User, id string, req *models.ReviewVerificationRequest) (*models.VerificationRequest, error)

func (h *AdminHandler) decideVerification(w http.ResponseWriter, r *http.Request, decide verificationDecision) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.ReviewVerificationRequest
	// An approval may come with an empty body.
	if r.ContentLength != 0 {
		if err := pkg.DecodeJSON(r, &req); err != nil {
			pkg.Error(w, err)
			return
		}
	}

	v, err := decide(r.Context(), admin, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, v)
}
