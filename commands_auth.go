package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"library-portal/nav"
	"library-portal/pages"
	"library-portal/session"
	"library-portal/ui"
)

func (c *cli) loginCmd() *cobra.Command {
	var form pages.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := c.ask(&form.Email, "Email: "); err != nil {
				return err
			}
			if err := c.askPassword(&form.Password, "Password: "); err != nil {
				return err
			}

			a.visit(nav.RouteLogin)
			page := pages.NewLoginPage(a.auth, a.router, a.log.WithName("login"))
			err := page.Submit(cmd.Context(), form)
			page.Render(a.out)
			if err != nil {
				return shown(err)
			}
			if a.router.Path() == nav.RouteChangePassword {
				fmt.Fprintln(a.out, "Run `librarian password change` to set a new password.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			ui.Banner(a.out, ui.Success, "Signed out")
			a.visit(nav.RouteLogin)
			return nil
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var form pages.RegisterForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a portal account",
		Long: `Create a portal account. The school email is derived from the name and
the additional ID (fn.ln.id@sms.edu.in) unless --email is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			for _, q := range []struct {
				value  *string
				prompt string
			}{
				{&form.FirstName, "First name: "},
				{&form.LastName, "Last name: "},
				{&form.Role, "Role (STUDENT, FACULTY, LIBRARIAN): "},
			} {
				if err := c.ask(q.value, q.prompt); err != nil {
					return err
				}
			}
			form.Role = strings.ToUpper(form.Role)
			if err := c.ask(&form.AdditionalID, additionalIDPrompt(form.Role)); err != nil {
				return err
			}
			if form.Role == string(session.RoleFaculty) {
				if err := c.ask(&form.Department, "Department: "); err != nil {
					return err
				}
			}
			if email := form.GeneratedEmail(); form.Email == "" && email != "" {
				fmt.Fprintf(a.out, "Your school email will be %s\n", email)
			}
			if err := c.askPassword(&form.Password, "Password: "); err != nil {
				return err
			}
			if err := c.askPassword(&form.ConfirmPassword, "Confirm password: "); err != nil {
				return err
			}

			sched := c.redirects(cmd)
			page := pages.NewRegisterPage(a.auth, a.router, sched, a.log.WithName("register"))
			err := page.Submit(cmd.Context(), form)
			page.Render(a.out)
			sched.flush()
			return shown(err)
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&form.Role, "role", "", "STUDENT, FACULTY or LIBRARIAN")
	cmd.Flags().StringVar(&form.AdditionalID, "id", "", "enrollment year, employee ID or staff ID")
	cmd.Flags().StringVar(&form.Department, "department", "", "department (faculty only)")
	cmd.Flags().StringVar(&form.Email, "email", "", "override the generated school email")
	return cmd
}

func additionalIDPrompt(role string) string {
	switch session.Role(role) {
	case session.RoleStudent:
		return "Enrollment year (e.g., 2024): "
	case session.RoleFaculty:
		return "Employee ID: "
	case session.RoleLibrarian:
		return "Staff ID: "
	}
	return "Additional ID: "
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			u := a.auth.User()
			if u == nil {
				ui.Banner(a.out, ui.Info, "Not signed in")
				return nil
			}
			t := ui.NewTable("Field", "Value")
			t.AddRow("Name", u.FullName())
			t.AddRow("Email", u.Email)
			t.AddRow("Role", u.Role.Label())
			if exp, err := session.TokenExpiry(a.session.Token()); err == nil {
				t.AddRow("Session expires", fmt.Sprintf("%s (%s)", humanize.Time(exp), exp.Local().Format(time.RFC1123)))
			}
			t.AddRow("Backend", a.cfg.APIBaseURL)
			t.Render(a.out)
			return nil
		},
	}
}
