package handlers

import (
	"net/http"

	"github.com/vignesh0909/adbond.net-sub002/models"
	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/services"
)

type OfferHandler struct {
	offerService services.OfferService
}

func NewOfferHandler(offerService services.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// Search godoc
// GET /api/offers?q=&category=&payout_model=&geo=&min_payout=&max_payout=&entity_id=&entity_type=&status=&sort=
func (h *OfferHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := models.OfferSearchParams{
		Query:       q.str("q"),
		Category:    q.str("category"),
		PayoutModel: models.PayoutModel(q.str("payout_model")),
		Geo:         q.str("geo"),
		MinPayout:   q.floatPtr("min_payout"),
		MaxPayout:   q.floatPtr("max_payout"),
		EntityID:    q.str("entity_id"),
		EntityType:  models.EntityType(q.str("entity_type")),
		Status:      models.OfferStatus(q.str("status")),
		Sort:        q.str("sort"),
		PageParams:  q.page(),
	}
	if q.err != nil {
		pkg.Error(w, q.err)
		return
	}

	page, err := h.offerService.Search(r.Context(), &params)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Get godoc
// GET /api/offers/{id}
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	offer, err := h.offerService.Get(r.Context(), CurrentUser(r), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, offer)
}

// Create godoc
// POST /api/entities/{id}/offers
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateOfferRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	offer, err := h.offerService.Create(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, offer)
}

// Update godoc
// PATCH /api/offers/{id}
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateOfferRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	offer, err := h.offerService.Update(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, offer)
}

// Delete godoc
// DELETE /api/offers/{id}
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.offerService.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "offer deleted"})
}
