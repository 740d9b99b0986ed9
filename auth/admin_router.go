package auth

import (
	"github.com/julienschmidt/httprouter"
)

// ProtectedRouter wraps httprouter so every route it registers goes through
// the authorization pipeline
type ProtectedRouter struct {
	router *httprouter.Router
	guard  func(httprouter.Handle) httprouter.Handle
}

// NewProtectedRouter registers routes that require a bearer token
func NewProtectedRouter(router *httprouter.Router, a *Authenticator) *ProtectedRouter {
	return &ProtectedRouter{router: router, guard: a.Protect}
}

// NewAdminRouter registers routes that require an administrator's bearer token
func NewAdminRouter(router *httprouter.Router, a *Authenticator) *ProtectedRouter {
	return &ProtectedRouter{router: router, guard: a.Admin}
}

// GET registers a guarded GET route
func (pr *ProtectedRouter) GET(path string, handler httprouter.Handle) {
	pr.router.GET(path, pr.guard(handler))
}

// POST registers a guarded POST route
func (pr *ProtectedRouter) POST(path string, handler httprouter.Handle) {
	pr.router.POST(path, pr.guard(handler))
}

// PUT registers a guarded PUT route
func (pr *ProtectedRouter) PUT(path string, handler httprouter.Handle) {
	pr.router.PUT(path, pr.guard(handler))
}
