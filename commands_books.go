package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"library-portal/pages"
	"library-portal/ui"
)

type runFunc func(cmd *cobra.Command, args []string) error

// librarianOnly runs fn behind the librarian route guard.
func (c *cli) librarianOnly(fn runFunc) runFunc {
	return func(cmd *cobra.Command, args []string) error {
		if err := c.app.requireLibrarian(); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func (c *cli) booksPage() *pages.BooksPage {
	return pages.NewBooksPage(c.app.librarian, c.app.log.WithName("books"))
}

func (c *cli) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "Manage the catalogue",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every book",
			Args:  cobra.NoArgs,
			RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
				page := c.booksPage()
				page.Load(cmd.Context())
				page.Render(c.app.out)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "available",
			Short: "List books with copies on the shelf",
			Args:  cobra.NoArgs,
			RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
				page := c.booksPage()
				page.LoadAvailable(cmd.Context())
				page.Render(c.app.out)
				return nil
			}),
		},
		c.booksSearchCmd(),
		c.booksAddCmd(),
		c.booksDeleteCmd(),
	)
	return cmd
}

func (c *cli) booksSearchCmd() *cobra.Command {
	var byAuthor bool
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search books by title, or by author with --author",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
			var term string
			if len(args) == 1 {
				term = args[0]
			}
			page := c.booksPage()
			// The current rows stay when a search fails.
			page.Load(cmd.Context())
			if byAuthor {
				page.SearchAuthor(cmd.Context(), term)
			} else {
				page.Search(cmd.Context(), term)
			}
			page.Render(c.app.out)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&byAuthor, "author", "a", false, "match the author instead of the title")
	return cmd
}

func (c *cli) booksAddCmd() *cobra.Command {
	var (
		form   pages.BookForm
		copies int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalogue",
		Args:  cobra.NoArgs,
		RunE: c.librarianOnly(func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("copies") {
				form.TotalCopies = strconv.Itoa(copies)
			}
			page := c.booksPage()
			page.OpenAdd()
			if err := c.ask(&form.Title, "Title: "); err != nil {
				return err
			}
			if err := c.ask(&form.Author, "Author: "); err != nil {
				return err
			}
			if !cmd.Flags().Changed("isbn") {
				if err := c.ask(&form.ISBN, "ISBN (optional): "); err != nil {
					return err
				}
			}
			if err := c.ask(&form.TotalCopies, "Total copies [1]: "); err != nil {
				return err
			}
			if form.TotalCopies == "" {
				form.TotalCopies = "1"
			}

			err := page.Add(cmd.Context(), form)
			page.Render(c.app.out)
			return shown(err)
		}),
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "book title")
	cmd.Flags().StringVar(&form.Author, "author", "", "book author")
	cmd.Flags().StringVar(&form.ISBN, "isbn", "", "ISBN")
	cmd.Flags().IntVar(&copies, "copies", 1, "total copies")
	cmd.Flags().StringVar(&form.Category, "category", "", "shelf category")
	return cmd
}

func (c *cli) booksDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: c.librarianOnly(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "book")
			if err != nil {
				return err
			}
			page := c.booksPage()
			confirm := func(question string) bool {
				if yes {
					return true
				}
				ok, err := c.app.prompt.Confirm(question)
				return err == nil && ok
			}
			if err := page.Delete(cmd.Context(), id, confirm); err != nil {
				return err
			}
			if page.Books().Phase() == pages.PhaseIdle {
				ui.Banner(c.app.out, ui.Info, "Nothing deleted")
				return nil
			}
			ui.Banner(c.app.out, ui.Success, "Book %d deleted", id)
			page.Render(c.app.out)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
