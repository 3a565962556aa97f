package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"library-portal/api"
	"library-portal/auth"
	"library-portal/config"
	"library-portal/logging"
	"library-portal/nav"
	"library-portal/session"
	"library-portal/ui"
)

// app holds everything a command needs. It is built once per process and
// shared by the commands typed into the shell.
type app struct {
	cfg     *config.Config
	log     logr.Logger
	sync    func() error
	store   session.Storage
	closer  io.Closer
	session *session.Session
	router  *nav.Router
	client  *api.Client

	// visiting is set while the user moves the router on purpose.
	visiting bool

	authAPI   *api.AuthAPI
	passwords *api.PasswordAPI
	librarian *api.LibrarianAPI
	images    *api.ProfileAPI
	auth      *auth.Provider

	prompt *ui.Prompter
	out    io.Writer
	errOut io.Writer
}

// newApp wires the session, router and HTTP client. store may be nil, in
// which case the SQLite session database from cfg is opened.
func newApp(cfg *config.Config, store session.Storage, in io.Reader, out, errOut io.Writer) (*app, error) {
	log, sync := logging.New("librarian", cfg.Debug, errOut)

	a := &app{cfg: cfg, log: log, sync: sync, out: out, errOut: errOut}
	if store == nil {
		db, err := session.OpenStore(cfg.SessionPath)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		store, a.closer = db, db
	}
	a.store = store

	a.session = session.New(store, log.WithName("session"))
	if err := a.session.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	start := nav.RouteLogin
	if u := a.session.User(); u != nil {
		if home, ok := auth.HomeRoute(u.Role); ok {
			start = home
		}
	}
	a.router = nav.NewRouter(start, log.WithName("nav"))
	a.router.OnNavigate(a.announce)

	a.client = api.NewClient(cfg.APIBaseURL, a.session, a.router,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(log.WithName("api")),
	)
	a.authAPI = api.NewAuthAPI(a.client)
	a.passwords = api.NewPasswordAPI(a.client)
	a.librarian = api.NewLibrarianAPI(a.client)
	a.images = api.NewProfileAPI(a.client)
	a.auth = auth.NewProvider(a.authAPI, a.session, log.WithName("auth"))

	if in == nil {
		in = os.Stdin
	}
	a.prompt = ui.NewPrompter(in, out)
	return a, nil
}

// announce reports route changes the user did not ask for, such as the
// redirect to login after the backend rejects the token.
func (a *app) announce(from, to string) {
	if to == nav.RouteLogin && !a.visiting {
		ui.Banner(a.out, ui.Info, "Redirecting to login. Run `librarian login` to sign in.")
		return
	}
	a.log.V(1).Info("route changed", "from", from, "to", to)
}

// visit moves to a route the user asked for.
func (a *app) visit(path string) {
	a.visiting = true
	defer func() { a.visiting = false }()
	a.router.Navigate(path)
}

// Close flushes the logger and releases the session database.
func (a *app) Close() error {
	var errs []error
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
	}
	if a.sync != nil {
		errs = append(errs, a.sync())
	}
	return errors.Join(errs...)
}

var (
	errNotSignedIn  = errors.New("not signed in")
	errAccessDenied = errors.New("access denied")
)

// requireLibrarian guards the librarian pages. Signed-out users are sent to
// the login route; other roles get the 403 banner.
func (a *app) requireLibrarian() error {
	if !a.auth.IsAuthenticated() {
		ui.Banner(a.out, ui.Danger, "You are not signed in.")
		a.visit(nav.RouteLogin)
		return shown(errNotSignedIn)
	}
	if !a.auth.HasRole(session.RoleLibrarian) {
		ui.Banner(a.out, ui.Danger, "Access denied (403): this area is for librarians only.")
		return shown(errAccessDenied)
	}
	a.router.Navigate(nav.RouteLibrarian)
	return nil
}
