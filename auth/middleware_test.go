package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mern-wallet/wallet-api/models/account"
)

type failingStore struct {
	account.Store
	err error
}

func (s failingStore) FindByID(context.Context, string) (*account.Account, error) {
	return nil, s.err
}

type pipelineFixture struct {
	auth   *Authenticator
	tokens *TokenService
	store  *account.Memory
	failed error
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		tokens: NewTokenService([]byte("test-secret"), time.Hour),
		store:  account.NewMemory(),
	}
	f.auth = NewAuthenticator(f.store, f.tokens, func(w http.ResponseWriter, r *http.Request, err error) {
		f.failed = err
		w.WriteHeader(http.StatusUnauthorized)
	})
	return f
}

func (f *pipelineFixture) insert(t *testing.T, email string, admin bool) (*account.Account, string) {
	t.Helper()
	acc, err := f.store.Insert(context.Background(), &account.Account{
		Name:         "Ann",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		IsAdmin:      admin,
	})
	require.NoError(t, err)
	tok, err := f.tokens.Issue(acc.ID)
	require.NoError(t, err)
	return acc, tok
}

func serve(h httprouter.Handle, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/users/current_user", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestProtect(t *testing.T) {
	f := newPipelineFixture(t)
	acc, tok := f.insert(t, "a@x.com", false)
	orphan, err := f.tokens.Issue("00000000-0000-4000-8000-000000000000")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"no header", "", ErrMissingToken},
		{"basic scheme", "Basic abc", ErrMissingToken},
		{"bearer without token", "Bearer ", ErrMissingToken},
		{"bearer without space", "Bearer" + tok, ErrMissingToken},
		{"lowercase scheme", "bearer " + tok, ErrMissingToken},
		{"garbage token", "Bearer not.a.jwt", ErrNotAuthorized},
		{"account gone", "Bearer " + orphan, ErrNotAuthorized},
		{"valid", "Bearer " + tok, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.failed = nil
			var principal *account.Account
			h := f.auth.Protect(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				principal = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rec := serve(h, tt.header)
			if tt.want != nil {
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.ErrorIs(t, f.failed, tt.want)
				assert.Nil(t, principal)
				return
			}
			assert.Equal(t, http.StatusOK, rec.Code)
			require.NotNil(t, principal)
			assert.Equal(t, acc.ID, principal.ID)
			assert.Empty(t, principal.PasswordHash)
		})
	}
}

func TestProtect_StoreError(t *testing.T) {
	f := newPipelineFixture(t)
	_, tok := f.insert(t, "a@x.com", false)
	boom := errors.New("store down")
	f.auth.store = failingStore{err: boom}

	called := false
	serve(f.auth.Protect(func(http.ResponseWriter, *http.Request, httprouter.Params) { called = true }), "Bearer "+tok)

	assert.False(t, called)
	assert.ErrorIs(t, f.failed, boom)
	assert.NotErrorIs(t, f.failed, ErrNotAuthorized)
}

func TestAdmin(t *testing.T) {
	f := newPipelineFixture(t)
	_, userTok := f.insert(t, "user@x.com", false)
	_, adminTok := f.insert(t, "admin@x.com", true)

	called := false
	h := f.auth.Admin(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	serve(h, "Bearer "+userTok)
	assert.False(t, called)
	assert.ErrorIs(t, f.failed, ErrNotAdmin)

	f.failed = nil
	serve(h, "")
	assert.False(t, called)
	assert.ErrorIs(t, f.failed, ErrMissingToken)

	f.failed = nil
	rec := serve(h, "Bearer "+adminTok)
	assert.True(t, called)
	assert.NoError(t, f.failed)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequireAdmin_NoPrincipal(t *testing.T) {
	_, err := RequireAdmin(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestChain_Order(t *testing.T) {
	f := newPipelineFixture(t)
	var order []string
	step := func(name string, err error) Step {
		return func(r *http.Request) (*http.Request, error) {
			order = append(order, name)
			return r, err
		}
	}
	stop := errors.New("stop")

	h := f.auth.Chain(step("a", nil), step("b", stop), step("c", nil))(
		func(http.ResponseWriter, *http.Request, httprouter.Params) { order = append(order, "handler") },
	)
	serve(h, "")

	assert.Equal(t, []string{"a", "b"}, order)
	assert.ErrorIs(t, f.failed, stop)
}

func TestProtectedRouter(t *testing.T) {
	f := newPipelineFixture(t)
	_, tok := f.insert(t, "a@x.com", false)

	router := httprouter.New()
	ok := func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) { w.WriteHeader(http.StatusOK) }
	NewProtectedRouter(router, f.auth).GET("/users/current_user", ok)
	NewAdminRouter(router, f.auth).PUT("/users/verify/:id", ok)

	tests := []struct {
		method string
		path   string
		header string
		want   int
	}{
		{http.MethodGet, "/users/current_user", "", http.StatusUnauthorized},
		{http.MethodGet, "/users/current_user", "Bearer " + tok, http.StatusOK},
		{http.MethodPut, "/users/verify/x", "Bearer " + tok, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}
