package api

import (
	"errors"
	"net/http"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/julienschmidt/httprouter"

	"github.com/mern-wallet/wallet-api/auth"
	"github.com/mern-wallet/wallet-api/models/account"
	"github.com/mern-wallet/wallet-api/services/accounts"
)

// CurrentUser returns the signed in account's id, email and name
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, h.svc.CurrentPrincipal(principal))
}

// GetUsers lists every other account
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	users, err := h.svc.ListOthers(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	image, err := h.svc.GetImage(r.Context(), auth.PrincipalFromContext(r.Context()))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, image)
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req accounts.ImageInput
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	view, err := h.svc.AttachImage(r.Context(), auth.PrincipalFromContext(r.Context()), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Verify sets another account's verification flag. Admin only.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req accounts.VerificationInput
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	view, err := h.svc.SetVerification(r.Context(), auth.PrincipalFromContext(r.Context()), ps.ByName("id"), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// UpdateProfile changes the signed in account's profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req accounts.ProfileInput
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.svc.UpdateProfile(r.Context(), auth.PrincipalFromContext(r.Context()), req)
	if err != nil {
		if errors.Is(err, account.ErrEmailExists) {
			writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Email already in use"})
			return
		}
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health reports whether the account store is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.health.Ping(r.Context()); err != nil {
		log.WithError(err).Error("Health Check Failed")
		writeJSON(w, http.StatusServiceUnavailable, MessageResponse{Message: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
}
