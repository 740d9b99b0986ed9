package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/julienschmidt/httprouter"

	"github.com/mern-wallet/wallet-api/auth"
	"github.com/mern-wallet/wallet-api/models/account"
	"github.com/mern-wallet/wallet-api/services/accounts"
)

// maxBodyBytes fits a base64 encoded image at images.MaxSize
const maxBodyBytes = 8 << 20

var errInvalidBody = errors.New("invalid request body")

// MessageResponse is the body of every error and of plain status replies
type MessageResponse struct {
	Message string `json:"message"`
}

// Pinger reports whether the account store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the /users routes
type Handler struct {
	svc    *accounts.Service
	health Pinger
}

// NewHandler creates a Handler
func NewHandler(svc *accounts.Service, health Pinger) *Handler {
	return &Handler{svc: svc, health: health}
}

// Routes registers every route on router
func (h *Handler) Routes(router *httprouter.Router, a *auth.Authenticator) {
	router.POST("/users/register", h.Register)
	router.POST("/users/login", h.Login)
	router.GET("/health", h.Health)

	protected := auth.NewProtectedRouter(router, a)
	protected.GET("/users/current_user", h.CurrentUser)
	protected.GET("/users/get_users", h.GetUsers)
	protected.GET("/users/get_image", h.GetImage)
	protected.POST("/users/upload_image", h.UploadImage)
	protected.PUT("/users/profile", h.UpdateProfile)

	admin := auth.NewAdminRouter(router, a)
	admin.PUT("/users/verify/:id", h.Verify)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// WriteError maps an error to its HTTP status and message. Unknown errors are
// logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "internal server error"

	var verr *account.ValidationError
	switch {
	case errors.Is(err, errInvalidBody):
		status, message = http.StatusBadRequest, "invalid request body"
	case errors.As(err, &verr) && verr.Malformed:
		status, message = http.StatusBadRequest, "Invalid fields: "+strings.Join(verr.Fields, ", ")
	case errors.As(err, &verr):
		status, message = http.StatusBadRequest, "Please add all fields: "+strings.Join(verr.Fields, ", ")
	case errors.Is(err, account.ErrEmailExists):
		status, message = http.StatusBadRequest, "User already exists"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrMissingToken):
		status, message = http.StatusUnauthorized, "Not authorized, no token"
	case errors.Is(err, auth.ErrNotAuthorized):
		status, message = http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, auth.ErrNotAdmin):
		status, message = http.StatusUnauthorized, "not authorized as an admin"
	case errors.Is(err, account.ErrAccountNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, account.ErrNoImage):
		status, message = http.StatusNotFound, "No user image"
	default:
		log.WithFields(log.Fields{
			"method": r.Method,
			"uri":    r.RequestURI,
		}).WithError(err).Error("Request Failed")
	}

	writeJSON(w, status, MessageResponse{Message: message})
}
