package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/julienschmidt/httprouter"

	"github.com/mern-wallet/wallet-api/models/account"
)

type contextKey string

const (
	PrincipalContextKey contextKey = "principal"
)

var (
	ErrMissingToken  = errors.New("not authorized, no token")
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotAdmin      = errors.New("not authorized as an admin")
)

// Step is one stage of the authorization pipeline. It returns the request
// the next stage sees, or an error that stops the pipeline.
type Step func(r *http.Request) (*http.Request, error)

// FailureWriter renders a pipeline error to the client
type FailureWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator resolves bearer tokens to accounts
type Authenticator struct {
	store  account.Store
	tokens *TokenService
	fail   FailureWriter
}

// NewAuthenticator creates an Authenticator. Failures are written with fail.
func NewAuthenticator(store account.Store, tokens *TokenService, fail FailureWriter) *Authenticator {
	return &Authenticator{store: store, tokens: tokens, fail: fail}
}

// Chain runs steps in order before next, stopping at the first failure
func (a *Authenticator) Chain(steps ...Step) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			for _, step := range steps {
				var err error
				if r, err = step(r); err != nil {
					a.fail(w, r, err)
					return
				}
			}
			next(w, r, ps)
		}
	}
}

// Protect requires a valid bearer token
func (a *Authenticator) Protect(next httprouter.Handle) httprouter.Handle {
	return a.Chain(a.Authenticate)(next)
}

// Admin requires a valid bearer token belonging to an administrator
func (a *Authenticator) Admin(next httprouter.Handle) httprouter.Handle {
	return a.Chain(a.Authenticate, RequireAdmin)(next)
}

// Authenticate verifies the bearer token and attaches the account it names
func (a *Authenticator) Authenticate(r *http.Request) (*http.Request, error) {
	tokenString, err := ExtractTokenFromHeader(r)
	if err != nil {
		return r, err
	}

	id, err := a.tokens.Verify(tokenString)
	if err != nil {
		log.WithFields(log.Fields{
			"uri":    r.RequestURI,
			"reason": err.Error(),
		}).Warn("Token Rejected")
		return r, ErrNotAuthorized
	}

	acc, err := a.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			log.WithField("id", id).Warn("Token Account Missing")
			return r, ErrNotAuthorized
		}
		return r, err
	}

	return r.WithContext(WithPrincipal(r.Context(), acc)), nil
}

// RequireAdmin rejects requests whose principal is not an administrator
func RequireAdmin(r *http.Request) (*http.Request, error) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		return r, ErrNotAuthorized
	}
	if !principal.IsAdmin {
		return r, ErrNotAdmin
	}
	return r, nil
}

// ExtractTokenFromHeader returns the token of an "Authorization: Bearer" header
func ExtractTokenFromHeader(r *http.Request) (string, error) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// WithPrincipal stores the authenticated account in ctx without its password hash
func WithPrincipal(ctx context.Context, acc *account.Account) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, acc.WithoutSecret())
}

// PrincipalFromContext gets the authenticated account from context
func PrincipalFromContext(ctx context.Context) *account.Account {
	acc, ok := ctx.Value(PrincipalContextKey).(*account.Account)
	if !ok {
		return nil
	}
	return acc
}
