package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createCartRequest struct {
	// UserID опционален: по умолчанию корзина создаётся для вызывающего.
	UserID string `json:"user_id,omitempty"`
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	var req createCartRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	p := principalFrom(r.Context())
	userID := req.UserID
	if userID == "" {
		userID = p.UserID
	}

	created, err := h.services.Carts.Create(r.Context(), p, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cartResponse{
		ID:        created.ID,
		UserID:    created.UserID,
		CreatedAt: created.CreatedAt,
		Items:     []cartItemResponse{},
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	summary, err := h.services.Carts.Get(r.Context(), p, chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(summary))
}

func (h *Handler) getCartByUser(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = p.UserID
	}

	summary, err := h.services.Carts.GetByUser(r.Context(), p, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(summary))
}

type addCartItemRequest struct {
	PetID    string `json:"pet_id"`
	Quantity int32  `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	item, err := h.services.Carts.AddItem(r.Context(), p, chi.URLParam(r, "cartID"), req.PetID, req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cartItemResponse{
		ID:       item.ID,
		CartID:   item.CartID,
		PetID:    item.PetID,
		Quantity: item.Quantity,
	})
}

type updateCartItemRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	item, err := h.services.Carts.UpdateItemQuantity(r.Context(), p, chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cartItemResponse{
		ID:       item.ID,
		CartID:   item.CartID,
		PetID:    item.PetID,
		Quantity: item.Quantity,
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if err := h.services.Carts.RemoveItem(r.Context(), p, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
