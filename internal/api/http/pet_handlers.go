package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createPetRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) createPet(w http.ResponseWriter, r *http.Request) {
	var req createPetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	created, err := h.services.Pets.Create(r.Context(), p, req.Name, req.Price)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPetResponse(created))
}

func (h *Handler) listPets(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r)
	pets, err := h.services.Pets.List(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]petResponse, 0, len(pets))
	for _, p := range pets {
		out = append(out, toPetResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getPet(w http.ResponseWriter, r *http.Request) {
	found, err := h.services.Pets.Get(r.Context(), chi.URLParam(r, "petID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetResponse(found))
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) updatePetPrice(w http.ResponseWriter, r *http.Request) {
	var req updatePriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	updated, err := h.services.Pets.UpdatePrice(r.Context(), p, chi.URLParam(r, "petID"), req.Price)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPetResponse(updated))
}

// queryLimit читает ?limit= из запроса; 0 означает «без ограничения».
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
