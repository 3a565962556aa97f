// Package auth signs users in and out and answers role questions about the
// current session.
package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-logr/logr"

	"library-portal/api"
	"library-portal/nav"
	"library-portal/session"
)

// Service is the auth slice of the backend.
type Service interface {
	Login(ctx context.Context, creds api.AuthRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
}

var homeRoutes = map[session.Role]string{
	session.RoleAdmin:     nav.RouteAdmin,
	session.RoleFaculty:   nav.RouteFaculty,
	session.RoleStudent:   nav.RouteStudent,
	session.RoleLibrarian: nav.RouteLibrarian,
}

// HomeRoute returns the landing route of role.
func HomeRoute(role session.Role) (string, bool) {
	route, ok := homeRoutes[role]
	return route, ok
}

// Result describes a successful sign-in or registration.
type Result struct {
	User               *session.User
	MustChangePassword bool
	// RedirectTo is where the caller should navigate next. Empty when the
	// registration did not sign the user in.
	RedirectTo string
	Message    string
}

// Error is a failed sign-in or registration. Message is fit for display.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Provider owns the session lifecycle: it starts it on login and ends it on
// logout. The HTTP layer ends it on its own when the backend answers 401.
type Provider struct {
	svc     Service
	session *session.Session
	log     logr.Logger
}

func NewProvider(svc Service, sess *session.Session, log logr.Logger) *Provider {
	return &Provider{svc: svc, session: sess, log: log}
}

// Login signs in and persists the session. Fields missing from the response
// are taken from the token claims.
func (p *Provider) Login(ctx context.Context, email, password string) (*Result, error) {
	resp, err := p.svc.Login(ctx, api.AuthRequest{Email: email, Password: password})
	if err != nil {
		msg := failureMessage(err, "Login failed")
		p.log.Error(err, "Login error", "message", msg)
		return nil, &Error{Message: msg, Err: err}
	}

	user := session.User{
		ID:                 resp.ID,
		Email:              resp.Email,
		Role:               session.Role(resp.Role),
		FirstName:          resp.FirstName,
		LastName:           resp.LastName,
		MustChangePassword: resp.MustChangePassword,
	}
	if user.Email == "" {
		user.Email = email
	}
	if user.Role == "" || user.ID == 0 {
		claims, err := session.ParseClaims(resp.Token)
		if err != nil {
			p.log.Error(err, "Error parsing JWT")
		} else {
			if user.Role == "" {
				user.Role = session.Role(claims.Role)
			}
			if user.ID == 0 {
				user.ID, _ = strconv.ParseInt(claims.Subject, 10, 64)
			}
		}
	}

	if err := p.session.Start(resp.Token, user); err != nil {
		return nil, &Error{Message: "Login failed", Err: err}
	}
	p.log.Info("Login successful", "email", user.Email, "role", user.Role)

	res := &Result{User: &user, MustChangePassword: user.MustChangePassword}
	switch route, ok := HomeRoute(user.Role); {
	case user.MustChangePassword:
		p.log.Info("User must change password on first login")
		res.RedirectTo = nav.RouteChangePassword
	case ok:
		res.RedirectTo = route
	default:
		res.RedirectTo = nav.RouteHome
	}
	return res, nil
}

// Register creates an account and signs in when the backend hands back a
// token.
func (p *Provider) Register(ctx context.Context, req api.RegisterRequest) (*Result, error) {
	resp, err := p.svc.Register(ctx, req)
	if err != nil {
		msg := failureMessage(err, "Registration failed")
		p.log.Error(err, "Registration error", "message", msg)
		return nil, &Error{Message: msg, Err: err}
	}
	if resp.Token == "" {
		return &Result{Message: "Registration successful. Please login."}, nil
	}

	user := session.User{
		ID:                 resp.ID,
		Email:              resp.Email,
		Role:               session.Role(resp.Role),
		FirstName:          resp.FirstName,
		LastName:           resp.LastName,
		MustChangePassword: resp.MustChangePassword,
	}
	if err := p.session.Start(resp.Token, user); err != nil {
		return nil, &Error{Message: "Registration failed", Err: err}
	}

	res := &Result{User: &user, RedirectTo: nav.RouteLogin}
	if route, ok := HomeRoute(user.Role); ok {
		res.RedirectTo = route
	}
	return res, nil
}

// Logout tells the backend and clears local state. A failing backend call
// is logged and does not keep the session alive.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.svc.Logout(ctx); err != nil {
		p.log.Error(err, "Logout API error (continuing logout)")
	}
	if err := p.session.Clear(); err != nil {
		return err
	}
	p.log.Info("User logged out")
	return nil
}

func (p *Provider) User() *session.User                { return p.session.User() }
func (p *Provider) IsAuthenticated() bool              { return p.session.IsAuthenticated() }
func (p *Provider) HasRole(roles ...session.Role) bool { return p.session.HasRole(roles...) }

// failureMessage prefers the server's message, then the transport error
// text, then fallback.
func failureMessage(err error, fallback string) string {
	if msg := api.MessageOf(err, ""); msg != "" {
		return msg
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) && err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
