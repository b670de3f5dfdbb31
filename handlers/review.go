package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// List godoc
// GET /api/entities/{id}/reviews?sort=newest|highest|lowest|helpful&page=&limit=
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := models.ReviewListParams{
		Sort:       q.str("sort"),
		PageParams: q.page(),
	}
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.reviewService.ListByEntity(r.Context(), CurrentUser(r), r.PathValue("id"), &params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Create godoc
// POST /api/entities/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateReviewRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, review)
}

// Update godoc
// PATCH /api/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateReviewRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	review, err := h.reviewService.Update(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, review)
}

// Delete godoc
// DELETE /api/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.reviewService.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

// Reply godoc
// POST /api/reviews/{id}/replies
func (h *ReviewHandler) Reply(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateReplyRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	reply, err := h.reviewService.Reply(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, reply)
}

// DeleteReply godoc
// DELETE /api/replies/{id}
func (h *ReviewHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReply(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "reply deleted"})
}

// Helpful godoc
// POST /api/reviews/{id}/helpful
// Toggles the caller's vote.
func (h *ReviewHandler) Helpful(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.reviewService.ToggleHelpful(r.Context(), user, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, result)
}

// Report godoc
// POST /api/reviews/{id}/report
func (h *ReviewHandler) Report(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.ReportReviewRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.reviewService.Report(r.Context(), user, r.PathValue("id"), &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "review reported"})
}
