package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"

	"library-portal/api"
	"library-portal/auth"
	"library-portal/nav"
	"library-portal/session"
	"library-portal/ui"
)

// Redirect delays after a successful password change or reset.
const (
	ChangePasswordRedirectDelay = 2 * time.Second
	ResetPasswordRedirectDelay  = 3 * time.Second
)

// ErrInvalidResetLink is returned when a reset is submitted without a token.
var ErrInvalidResetLink = errors.New("invalid or expired reset link")

// Authenticator is the auth context as seen by the pages.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	Register(ctx context.Context, req api.RegisterRequest) (*auth.Result, error)
	Logout(ctx context.Context) error
	User() *session.User
}

// PasswordService is the password slice of the backend.
type PasswordService interface {
	Change(ctx context.Context, req api.PasswordChange) (*api.MessageResponse, error)
	RequestReset(ctx context.Context, email string) (*api.MessageResponse, error)
	ConfirmReset(ctx context.Context, req api.PasswordResetConfirm) (*api.MessageResponse, error)
}

func renderFieldErrors(w io.Writer, errs FieldErrors, order ...string) {
	for _, field := range order {
		if msg, ok := errs[field]; ok {
			ui.Banner(w, ui.Danger, "%s", msg)
		}
	}
}

// Login

type LoginForm struct {
	Email    string `json:"email" validate:"notblank,loose_email"`
	Password string `json:"password" validate:"required,min=6"`
}

var loginMessages = map[string]string{
	"email.notblank":    "Email is required",
	"email.loose_email": "Please enter a valid email",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

type LoginPage struct {
	auth   Authenticator
	nav    Navigator
	log    logr.Logger
	state  State[*auth.Result]
	errors FieldErrors
}

func NewLoginPage(a Authenticator, n Navigator, log logr.Logger) *LoginPage {
	return &LoginPage{auth: a, nav: n, log: log}
}

func (p *LoginPage) State() State[*auth.Result] { return p.state }
func (p *LoginPage) FieldErrors() FieldErrors   { return p.errors }

// Submit signs in and navigates to the route the auth context picked.
func (p *LoginPage) Submit(ctx context.Context, form LoginForm) error {
	if p.errors = checkForm(form, loginMessages); p.errors != nil {
		return p.errors
	}
	p.state = Loading[*auth.Result]()
	res, err := p.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		p.state = Failed[*auth.Result](err)
		return err
	}
	p.state = Loaded(res)
	p.nav.Navigate(res.RedirectTo)
	return nil
}

func (p *LoginPage) Render(w io.Writer) {
	renderFieldErrors(w, p.errors, "email", "password")
	switch p.state.Phase() {
	case PhaseLoading:
		fmt.Fprintln(w, "Signing in...")
	case PhaseFailed:
		ui.Banner(w, ui.Danger, "%s", p.state.Err())
	case PhaseLoaded:
		res, _ := p.state.Data()
		ui.Banner(w, ui.Success, "Signed in as %s (%s)", res.User.Email, res.User.Role.Label())
		if res.MustChangePassword {
			ui.Banner(w, ui.Warning, "You must change your temporary password before continuing")
		}
	}
}

// Register

type RegisterForm struct {
	FirstName       string `json:"firstName" validate:"notblank"`
	LastName        string `json:"lastName" validate:"notblank"`
	Email           string `json:"email" validate:"notblank,school_email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Role            string `json:"role" validate:"oneof=STUDENT FACULTY LIBRARIAN"`
	AdditionalID    string `json:"additionalId" validate:"notblank"`
	Department      string `json:"department"`
}

// GeneratedEmail is the school address derived from name and id, or "" while
// any part is missing.
func (f RegisterForm) GeneratedEmail() string {
	fn := strings.ToLower(strings.TrimSpace(f.FirstName))
	ln := strings.ToLower(strings.TrimSpace(f.LastName))
	id := strings.TrimSpace(f.AdditionalID)
	if fn == "" || ln == "" || id == "" {
		return ""
	}
	return fmt.Sprintf("%s.%s.%s@sms.edu.in", fn, ln, id)
}

func registerFormRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(RegisterForm)
	if f.Role == string(session.RoleFaculty) && strings.TrimSpace(f.Department) == "" {
		sl.ReportError(f.Department, "department", "Department", "faculty_department", "")
	}
}

var registerMessages = map[string]string{
	"firstName.notblank":            "First name is required",
	"lastName.notblank":             "Last name is required",
	"email.notblank":                "Email is required",
	"email.school_email":            "Email must be in format: name@sms.edu.in",
	"password.required":             "Password is required",
	"password.min":                  "Password must be at least 8 characters",
	"confirmPassword.eqfield":       "Passwords do not match",
	"role.oneof":                    "Please select a role",
	"additionalId.notblank":         "Employee ID is required",
	"department.faculty_department": "Department is required for faculty",
}

const RegisterRedirectDelay = 2 * time.Second

type RegisterPage struct {
	auth   Authenticator
	nav    Navigator
	sched  Scheduler
	log    logr.Logger
	state  State[*auth.Result]
	errors FieldErrors
}

func NewRegisterPage(a Authenticator, n Navigator, sched Scheduler, log logr.Logger) *RegisterPage {
	return &RegisterPage{auth: a, nav: n, sched: sched, log: log}
}

func (p *RegisterPage) State() State[*auth.Result] { return p.state }
func (p *RegisterPage) FieldErrors() FieldErrors   { return p.errors }

func (p *RegisterPage) Submit(ctx context.Context, form RegisterForm) error {
	if form.Email == "" {
		form.Email = form.GeneratedEmail()
	}
	p.errors = checkForm(form, registerMessages)
	if _, ok := p.errors["additionalId"]; ok && form.Role == string(session.RoleStudent) {
		p.errors["additionalId"] = "Enrollment year is required (e.g., 2024)"
	}
	if p.errors != nil {
		return p.errors
	}

	req := api.RegisterRequest{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		Password:     form.Password,
		Role:         form.Role,
		AdditionalID: form.AdditionalID,
	}
	if form.Role == string(session.RoleFaculty) {
		req.Department = form.Department
	}

	p.state = Loading[*auth.Result]()
	res, err := p.auth.Register(ctx, req)
	if err != nil {
		p.state = Failed[*auth.Result](err)
		return err
	}
	p.state = Loaded(res)
	to := res.RedirectTo
	if to == "" {
		to = nav.RouteLogin
	}
	p.sched.AfterFunc(RegisterRedirectDelay, func() { p.nav.Navigate(to) })
	return nil
}

func (p *RegisterPage) Render(w io.Writer) {
	renderFieldErrors(w, p.errors, "firstName", "lastName", "email", "password",
		"confirmPassword", "role", "additionalId", "department")
	switch p.state.Phase() {
	case PhaseLoading:
		fmt.Fprintln(w, "Creating account...")
	case PhaseFailed:
		ui.Banner(w, ui.Danger, "%s", p.state.Err())
	case PhaseLoaded:
		res, _ := p.state.Data()
		msg := res.Message
		if msg == "" {
			msg = "Registration successful!"
		}
		ui.Banner(w, ui.Success, "%s", msg)
	}
}

// Change password

type ChangePasswordForm struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	// The equality rule comes first so it wins over the length rules.
	NewPassword     string `json:"newPassword" validate:"nefield=CurrentPassword,required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

var changePasswordMessages = map[string]string{
	"currentPassword.required": "Current password is required",
	"newPassword.nefield":      "New password must be different from current password",
	"newPassword.required":     "New password is required",
	"newPassword.min":          "Password must be at least 8 characters",
	"confirmPassword.required": "Please confirm your new password",
	"confirmPassword.eqfield":  "Passwords do not match",
}

type ChangePasswordPage struct {
	svc    PasswordService
	auth   Authenticator
	nav    Navigator
	sched  Scheduler
	log    logr.Logger
	state  State[string]
	errors FieldErrors
}

func NewChangePasswordPage(svc PasswordService, a Authenticator, n Navigator, sched Scheduler, log logr.Logger) *ChangePasswordPage {
	return &ChangePasswordPage{svc: svc, auth: a, nav: n, sched: sched, log: log}
}

func (p *ChangePasswordPage) State() State[string]     { return p.state }
func (p *ChangePasswordPage) FieldErrors() FieldErrors { return p.errors }

// Mount sends signed-out users to the login route and reports whether the
// page can be shown.
func (p *ChangePasswordPage) Mount() bool {
	if p.auth.User() == nil {
		p.nav.Navigate(nav.RouteLogin)
		return false
	}
	return true
}

// Submit changes the password. On success the user is signed out and sent
// to the login route after ChangePasswordRedirectDelay.
func (p *ChangePasswordPage) Submit(ctx context.Context, form ChangePasswordForm) error {
	if p.errors = checkForm(form, changePasswordMessages); p.errors != nil {
		return p.errors
	}

	p.state = Loading[string]()
	resp, err := p.svc.Change(ctx, api.PasswordChange(form))
	if err != nil {
		p.log.Error(err, "Password change error")
		fail := failure(err, "Failed to change password. Please try again.")
		p.state = Failed[string](fail)
		return fail
	}
	p.log.Info("Password change response", "success", resp.Success, "message", resp.Message)
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to change password"
		}
		fail := &Error{Message: msg}
		p.state = Failed[string](fail)
		return fail
	}

	p.state = Loaded("Your password has been updated successfully. Redirecting to login...")
	p.sched.AfterFunc(ChangePasswordRedirectDelay, func() {
		if err := p.auth.Logout(context.Background()); err != nil {
			p.log.Error(err, "logout after password change")
		}
		p.nav.Navigate(nav.RouteLogin)
	})
	return nil
}

func (p *ChangePasswordPage) Render(w io.Writer) {
	if msg, ok := p.state.Data(); ok {
		ui.Banner(w, ui.Success, "Password Changed!")
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, "Change Password")
	fmt.Fprintln(w, "For security, you must change your temporary password")
	renderFieldErrors(w, p.errors, "currentPassword", "newPassword", "confirmPassword")
	switch p.state.Phase() {
	case PhaseLoading:
		fmt.Fprintln(w, "Changing password...")
	case PhaseFailed:
		ui.Banner(w, ui.Danger, "%s", p.state.Err())
	}
}

// Forgot password

type ForgotPasswordForm struct {
	Email string `json:"email" validate:"notblank,loose_email"`
}

var forgotPasswordMessages = map[string]string{
	"email.notblank":    "Email is required",
	"email.loose_email": "Please enter a valid email address",
}

type ForgotPasswordPage struct {
	svc    PasswordService
	log    logr.Logger
	state  State[string]
	errors FieldErrors
}

func NewForgotPasswordPage(svc PasswordService, log logr.Logger) *ForgotPasswordPage {
	return &ForgotPasswordPage{svc: svc, log: log}
}

func (p *ForgotPasswordPage) State() State[string]     { return p.state }
func (p *ForgotPasswordPage) FieldErrors() FieldErrors { return p.errors }

// Submit requests a reset link. Once the form is valid the page always ends
// in the success view, so the outcome does not reveal whether the account
// exists.
func (p *ForgotPasswordPage) Submit(ctx context.Context, form ForgotPasswordForm) error {
	if p.errors = checkForm(form, forgotPasswordMessages); p.errors != nil {
		return p.errors
	}
	p.state = Loading[string]()
	if resp, err := p.svc.RequestReset(ctx, form.Email); err != nil {
		p.log.Error(err, "Password reset request error")
	} else if resp != nil {
		p.log.Info("Password reset request response", "message", resp.Message)
	}
	p.state = Loaded(form.Email)
	return nil
}

func (p *ForgotPasswordPage) Render(w io.Writer) {
	if email, ok := p.state.Data(); ok {
		ui.Banner(w, ui.Success, "Check Your Email")
		fmt.Fprintf(w, "If an account exists for %s, you will receive a password reset link shortly.\n", email)
		return
	}
	fmt.Fprintln(w, "Forgot Password")
	fmt.Fprintln(w, "Enter your email address and we'll send you a link to reset your password.")
	renderFieldErrors(w, p.errors, "email")
	if p.state.IsLoading() {
		fmt.Fprintln(w, "Sending...")
	}
}

// Reset password

type ResetPasswordForm struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

var resetPasswordMessages = map[string]string{
	"newPassword.required":     "New password is required",
	"newPassword.min":          "Password must be at least 8 characters",
	"confirmPassword.required": "Please confirm your new password",
	"confirmPassword.eqfield":  "Passwords do not match",
}

type ResetPasswordPage struct {
	svc    PasswordService
	nav    Navigator
	sched  Scheduler
	log    logr.Logger
	token  string
	state  State[string]
	errors FieldErrors
}

// NewResetPasswordPage opens the page for the token carried by the reset
// link. An empty token puts the page in the invalid-link view for good.
func NewResetPasswordPage(token string, svc PasswordService, n Navigator, sched Scheduler, log logr.Logger) *ResetPasswordPage {
	return &ResetPasswordPage{token: token, svc: svc, nav: n, sched: sched, log: log}
}

func (p *ResetPasswordPage) InvalidLink() bool        { return p.token == "" }
func (p *ResetPasswordPage) State() State[string]     { return p.state }
func (p *ResetPasswordPage) FieldErrors() FieldErrors { return p.errors }

func (p *ResetPasswordPage) Submit(ctx context.Context, form ResetPasswordForm) error {
	if p.InvalidLink() {
		return ErrInvalidResetLink
	}
	if p.errors = checkForm(form, resetPasswordMessages); p.errors != nil {
		return p.errors
	}

	p.state = Loading[string]()
	resp, err := p.svc.ConfirmReset(ctx, api.PasswordResetConfirm{
		Token:           p.token,
		NewPassword:     form.NewPassword,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		p.log.Error(err, "Password reset error")
		fail := failure(err, "Failed to reset password. The link may have expired.")
		p.state = Failed[string](fail)
		return fail
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "Failed to reset password"
		}
		fail := &Error{Message: msg}
		p.state = Failed[string](fail)
		return fail
	}

	p.state = Loaded("Your password has been reset successfully. Redirecting to login...")
	p.sched.AfterFunc(ResetPasswordRedirectDelay, func() { p.nav.Navigate(nav.RouteLogin) })
	return nil
}

func (p *ResetPasswordPage) Render(w io.Writer) {
	if p.InvalidLink() {
		ui.Banner(w, ui.Danger, "Invalid Reset Link")
		fmt.Fprintln(w, "This password reset link is invalid or has expired. Please request a new one.")
		return
	}
	if msg, ok := p.state.Data(); ok {
		ui.Banner(w, ui.Success, "Password Reset!")
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintln(w, "Reset Password")
	fmt.Fprintln(w, "Enter your new password below.")
	renderFieldErrors(w, p.errors, "newPassword", "confirmPassword")
	switch p.state.Phase() {
	case PhaseLoading:
		fmt.Fprintln(w, "Resetting password...")
	case PhaseFailed:
		ui.Banner(w, ui.Danger, "%s", p.state.Err())
	}
}
