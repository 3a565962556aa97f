package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"library-portal/api"
	"library-portal/pages"
	"library-portal/ui"
)

func (c *cli) requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"request"},
		Short:   "Review book requests",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List requests by status",
		Args:  cobra.NoArgs,
		RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
			filter, err := pages.ParseRequestFilter(status)
			if err != nil {
				return err
			}
			page := pages.NewBookRequestsPage(c.app.librarian, c.app.log.WithName("requests"))
			page.SetFilter(cmd.Context(), filter)
			page.Render(c.app.out)
			return nil
		}),
	}
	list.Flags().StringVarP(&status, "status", "s", string(pages.FilterPending), "PENDING, APPROVED, REJECTED or ALL")

	cmd.AddCommand(
		list,
		c.processCmd("approve", "Approve a pending request", api.ActionApprove),
		c.processCmd("reject", "Reject a pending request", api.ActionReject),
	)
	return cmd
}

func (c *cli) processCmd(use, short string, action api.RequestAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "request")
			if err != nil {
				return err
			}
			page := pages.NewBookRequestsPage(c.app.librarian, c.app.log.WithName("requests"))
			page.Load(cmd.Context())
			if err := page.Process(cmd.Context(), id, action); err != nil {
				return err
			}
			ui.Banner(c.app.out, ui.Success, "Request %d: %s", id, action)
			page.Render(c.app.out)
			return nil
		}),
	}
}

func (c *cli) overduePage() *pages.OverduePage {
	return pages.NewOverduePage(c.app.librarian, c.app.log.WithName("overdue"), time.Now)
}

func (c *cli) overdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Overdue books and fines",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List overdue issues with days late and fine",
			Args:  cobra.NoArgs,
			RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
				page := c.overduePage()
				page.Load(cmd.Context())
				page.Render(c.app.out)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "return <issue-id>",
			Short: "Return an overdue book charging the fine",
			Args:  cobra.ExactArgs(1),
			RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "issue")
				if err != nil {
					return err
				}
				page := c.overduePage()
				page.Load(cmd.Context())
				fine, err := page.Return(cmd.Context(), id)
				if err != nil {
					return err
				}
				ui.Banner(c.app.out, ui.Success, "Issue %d returned, fine charged: ₹%s", id, humanize.Commaf(fine))
				page.Render(c.app.out)
				return nil
			}),
		},
	)
	return cmd
}

func (c *cli) issuesPage() *pages.IssuesPage {
	return pages.NewIssuesPage(c.app.librarian, c.app.log.WithName("issues"), time.Now)
}

func (c *cli) issuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "Lend and take back books",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List active issues and books on the shelf",
			Args:  cobra.NoArgs,
			RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
				page := c.issuesPage()
				page.Load(cmd.Context())
				page.Render(c.app.out)
				return nil
			}),
		},
		c.issueBookCmd(),
		&cobra.Command{
			Use:   "return <issue-id>",
			Short: "Return a book without a fine",
			Args:  cobra.ExactArgs(1),
			RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "issue")
				if err != nil {
					return err
				}
				page := c.issuesPage()
				if err := page.Return(cmd.Context(), id); err != nil {
					return err
				}
				page.Render(c.app.out)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "user <user-id>",
			Short: "List every issue of one user",
			Args:  cobra.ExactArgs(1),
			RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "user")
				if err != nil {
					return err
				}
				page := c.issuesPage()
				page.LoadForUser(cmd.Context(), id)
				page.Render(c.app.out)
				return nil
			}),
		},
	)
	return cmd
}

func (c *cli) issueBookCmd() *cobra.Command {
	var form pages.IssueForm
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Lend a book to a user",
		Args:  cobra.NoArgs,
		RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
			page := c.issuesPage()
			if form.BookID == "" {
				page.Load(cmd.Context())
				page.RenderAvailable(c.app.out)
			}
			if err := c.ask(&form.BookID, "Book ID: "); err != nil {
				return err
			}
			if err := c.ask(&form.UserID, "User ID: "); err != nil {
				return err
			}
			if form.DueDate == "" {
				form.DueDate = page.DefaultDueDate()
			}
			err := page.Issue(cmd.Context(), form)
			page.Render(c.app.out)
			return shown(err)
		}),
	}
	cmd.Flags().StringVar(&form.BookID, "book", "", "book ID")
	cmd.Flags().StringVar(&form.UserID, "user", "", "borrower user ID")
	cmd.Flags().StringVar(&form.DueDate, "due", "", "due date, YYYY-MM-DD (default today + 14 days)")
	return cmd
}
