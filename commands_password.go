package main

import (
	"github.com/spf13/cobra"

	"library-portal/pages"
	"library-portal/ui"
)

func (c *cli) passwordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change, forget or reset a password",
	}
	cmd.AddCommand(c.passwordChangeCmd(), c.passwordForgotCmd(), c.passwordResetCmd())
	return cmd
}

func (c *cli) passwordChangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change",
		Short: "Change the password of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			sched := c.redirects(cmd)
			page := pages.NewChangePasswordPage(a.passwords, a.auth, a.router, sched, a.log.WithName("change-password"))
			if !page.Mount() {
				ui.Banner(a.out, ui.Danger, "You are not signed in.")
				return shown(errNotSignedIn)
			}

			var form pages.ChangePasswordForm
			if err := c.askPassword(&form.CurrentPassword, "Current password: "); err != nil {
				return err
			}
			if err := c.askPassword(&form.NewPassword, "New password: "); err != nil {
				return err
			}
			if err := c.askPassword(&form.ConfirmPassword, "Confirm new password: "); err != nil {
				return err
			}

			err := page.Submit(cmd.Context(), form)
			page.Render(a.out)
			sched.flush()
			return shown(err)
		},
	}
}

func (c *cli) passwordForgotCmd() *cobra.Command {
	var form pages.ForgotPasswordForm
	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset link by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := c.ask(&form.Email, "Email: "); err != nil {
				return err
			}
			page := pages.NewForgotPasswordPage(a.passwords, a.log.WithName("forgot-password"))
			err := page.Submit(cmd.Context(), form)
			page.Render(a.out)
			return shown(err)
		},
	}
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	return cmd
}

func (c *cli) passwordResetCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with the token from a reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			sched := c.redirects(cmd)
			page := pages.NewResetPasswordPage(token, a.passwords, a.router, sched, a.log.WithName("reset-password"))
			if page.InvalidLink() {
				page.Render(a.out)
				return shown(pages.ErrInvalidResetLink)
			}

			var form pages.ResetPasswordForm
			if err := c.askPassword(&form.NewPassword, "New password: "); err != nil {
				return err
			}
			if err := c.askPassword(&form.ConfirmPassword, "Confirm new password: "); err != nil {
				return err
			}

			err := page.Submit(cmd.Context(), form)
			page.Render(a.out)
			sched.flush()
			return shown(err)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset link")
	return cmd
}
