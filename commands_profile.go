package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"library-portal/pages"
)

func (c *cli) profilePage() *pages.ProfilePage {
	a := c.app
	return pages.NewProfilePage(a.librarian, a.images, a.client.BaseURL(), a.log.WithName("profile"))
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the librarian profile or change its photo",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the librarian profile",
			Args:  cobra.NoArgs,
			RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
				page := c.profilePage()
				page.Load(cmd.Context())
				page.Render(c.app.out)
				if err := page.Profile().Err(); err != nil {
					return shown(err)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "upload <image-file>",
			Short: "Upload a new profile photo (images up to 2MB)",
			Args:  cobra.ExactArgs(1),
			RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
				path := filepath.Clean(args[0])
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				page := c.profilePage()
				page.Load(cmd.Context())
				err = page.Upload(cmd.Context(), filepath.Base(path), content)
				page.Render(c.app.out)
				return shown(err)
			}),
		},
	)
	return cmd
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show counters, pending requests and overdue books",
		Args:  cobra.NoArgs,
		RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
			page := pages.NewDashboardPage(c.app.librarian, c.app.auth.User, c.app.log.WithName("dashboard"))
			page.Load(cmd.Context())
			page.Render(c.app.out)
			return nil
		}),
	}
}
