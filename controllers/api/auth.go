package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/mern-wallet/wallet-api/services/accounts"
)

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req accounts.RegisterInput
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req accounts.LoginInput
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
