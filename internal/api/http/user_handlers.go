package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type registerUserRequest struct {
	Email string `json:"email"`
	Staff bool   `json:"staff"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.services.Users.Register(r.Context(), req.Email, req.Staff)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	profile, err := h.services.Users.GetProfile(r.Context(), p, chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

type changePINRequest struct {
	CurrentPIN string `json:"current_pin"`
	NewPIN     string `json:"new_pin"`
}

func (h *Handler) changePIN(w http.ResponseWriter, r *http.Request) {
	var req changePINRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	p := principalFrom(r.Context())
	if err := h.services.Users.ChangePIN(r.Context(), p, chi.URLParam(r, "userID"), req.CurrentPIN, req.NewPIN); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
