package nav

import (
	"sync"

	"github.com/go-logr/logr"
)

// Route paths known to the portal.
const (
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteChangePassword = "/change-password"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteHome           = "/"

	RouteAdmin     = "/admin"
	RouteFaculty   = "/faculty"
	RouteStudent   = "/student"
	RouteLibrarian = "/librarian"
)

// Router tracks the current route. It stands in for browser navigation: the
// HTTP layer and the pages move it, and the CLI reacts through OnNavigate.
type Router struct {
	mu       sync.Mutex
	path     string
	history  []string
	handlers []func(from, to string)
	log      logr.Logger
}

// NewRouter starts at the given path.
func NewRouter(start string, log logr.Logger) *Router {
	if start == "" {
		start = RouteHome
	}
	return &Router{path: start, log: log}
}

// Path returns the current route.
func (r *Router) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Navigate moves to path. Navigating to the current route is a no-op.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	from := r.path
	if from == path {
		r.mu.Unlock()
		return
	}
	r.history = append(r.history, from)
	r.path = path
	handlers := append([]func(string, string){}, r.handlers...)
	r.mu.Unlock()

	r.log.V(1).Info("navigate", "from", from, "to", path)
	for _, h := range handlers {
		h(from, path)
	}
}

// History returns previously visited routes, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// OnNavigate registers fn to run after every route change.
func (r *Router) OnNavigate(fn func(from, to string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, fn)
}
