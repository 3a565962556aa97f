package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"library-portal/api"
	"library-portal/ui"
)

// DeleteBookConfirmation is asked before a book is deleted.
const DeleteBookConfirmation = "Are you sure you want to delete this book?"

// BookService is the catalogue slice of the backend.
type BookService interface {
	AllBooks(ctx context.Context) ([]api.Book, error)
	AvailableBooks(ctx context.Context) ([]api.Book, error)
	SearchByTitle(ctx context.Context, title string) ([]api.Book, error)
	SearchByAuthor(ctx context.Context, author string) ([]api.Book, error)
	AddBook(ctx context.Context, book api.NewBook) (*api.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BookForm is the add-book form as typed. TotalCopies is text and parsed on
// submit.
type BookForm struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	ISBN        string `json:"isbn"`
	TotalCopies string `json:"totalCopies"`
	Category    string `json:"category"`
}

func emptyBookForm() BookForm { return BookForm{TotalCopies: "1"} }

type BooksPage struct {
	svc BookService
	log logr.Logger

	books State[[]api.Book]
	busy  int64

	modalOpen bool
	creating  bool
	addError  string
	form      BookForm
}

func NewBooksPage(svc BookService, log logr.Logger) *BooksPage {
	return &BooksPage{svc: svc, log: log, form: emptyBookForm()}
}

func (p *BooksPage) Books() State[[]api.Book] { return p.books }
func (p *BooksPage) Busy() int64              { return p.busy }
func (p *BooksPage) ModalOpen() bool          { return p.modalOpen }
func (p *BooksPage) AddError() string         { return p.addError }
func (p *BooksPage) Form() BookForm           { return p.form }

// Load fetches the whole catalogue. A failed fetch is logged and shown as an
// empty list.
func (p *BooksPage) Load(ctx context.Context) {
	p.fetch(ctx, "Error fetching books", p.svc.AllBooks)
}

// LoadAvailable lists only books with copies on the shelf.
func (p *BooksPage) LoadAvailable(ctx context.Context) {
	p.fetch(ctx, "Error fetching available books", p.svc.AvailableBooks)
}

// Search looks books up by title. A blank term reloads the full list.
func (p *BooksPage) Search(ctx context.Context, term string) {
	if strings.TrimSpace(term) == "" {
		p.Load(ctx)
		return
	}
	p.search(ctx, func(ctx context.Context) ([]api.Book, error) { return p.svc.SearchByTitle(ctx, term) })
}

// SearchAuthor looks books up by author. A blank term reloads the full list.
func (p *BooksPage) SearchAuthor(ctx context.Context, term string) {
	if strings.TrimSpace(term) == "" {
		p.Load(ctx)
		return
	}
	p.search(ctx, func(ctx context.Context) ([]api.Book, error) { return p.svc.SearchByAuthor(ctx, term) })
}

func (p *BooksPage) fetch(ctx context.Context, what string, get func(context.Context) ([]api.Book, error)) {
	p.books = Loading[[]api.Book]()
	books, err := get(ctx)
	if err != nil {
		p.log.Error(err, what)
		p.books = Failed[[]api.Book](err)
		return
	}
	p.log.V(1).Info("Books", "count", len(books))
	p.books = Loaded(books)
}

// search keeps the current rows when the lookup fails.
func (p *BooksPage) search(ctx context.Context, get func(context.Context) ([]api.Book, error)) {
	books, err := get(ctx)
	if err != nil {
		p.log.Error(err, "Error searching")
		return
	}
	p.books = Loaded(books)
}

func (p *BooksPage) OpenAdd() {
	p.modalOpen = true
	p.addError = ""
}

func (p *BooksPage) CloseAdd() { p.modalOpen = false }

// Add creates a book from form. On success the modal closes, the form resets
// and the list is fetched again. On failure the message stays in the modal.
func (p *BooksPage) Add(ctx context.Context, form BookForm) error {
	p.form = form
	p.addError = ""
	if err := validate.Struct(form); err != nil {
		return p.failAdd(&Error{Message: "Title and author are required", Err: err})
	}
	copies, ok := parseLeadingInt(form.TotalCopies)
	if !ok {
		return p.failAdd(&Error{Message: "Total copies must be a number"})
	}

	p.creating = true
	defer func() { p.creating = false }()
	_, err := p.svc.AddBook(ctx, api.NewBook{
		Title:       form.Title,
		Author:      form.Author,
		ISBN:        form.ISBN,
		TotalCopies: copies,
		Category:    form.Category,
	})
	if err != nil {
		p.log.Error(err, "Error adding book")
		return p.failAdd(failure(err, "Failed to add book"))
	}

	p.modalOpen = false
	p.form = emptyBookForm()
	p.Load(ctx)
	return nil
}

func (p *BooksPage) failAdd(e *Error) error {
	p.addError = e.Message
	return e
}

// Delete removes book id once confirm agrees, then reloads. Declining does
// nothing. Failures are logged only.
func (p *BooksPage) Delete(ctx context.Context, id int64, confirm func(question string) bool) error {
	if !confirm(DeleteBookConfirmation) {
		return nil
	}
	p.busy = id
	defer func() { p.busy = 0 }()
	if err := p.svc.DeleteBook(ctx, id); err != nil {
		p.log.Error(err, "Error deleting book", "id", id)
		return err
	}
	p.Load(ctx)
	return nil
}

// parseLeadingInt reads the leading integer of s the way a browser's
// parseInt does: "3", " 3 copies" and "+3" are 3; "abc" is not a number.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *BooksPage) Render(w io.Writer) {
	fmt.Fprintln(w, "Books Management")
	if p.books.IsLoading() {
		fmt.Fprintln(w, "Loading...")
	} else {
		books, _ := p.books.Data()
		tbl := ui.NewTable("ID", "Title", "Author", "ISBN", "Available", "Total")
		tbl.Title = fmt.Sprintf("All Books (%d)", len(books))
		tbl.Empty = "No books found"
		for _, b := range books {
			del := ui.Button{Label: "Delete", Variant: ui.Danger, Loading: p.busy == b.ID}
			tbl.AddRow(b.ID, b.Title, b.Author, orDash(b.ISBN),
				b.AvailableCopies, b.TotalCopies, del)
		}
		tbl.Render(w)
	}

	ui.Modal{
		Title: "Add New Book",
		Open:  p.modalOpen,
		Body: func(w io.Writer) {
			if p.addError != "" {
				ui.Banner(w, ui.Danger, "%s", p.addError)
			}
			fmt.Fprintf(w, "Title: %s\nAuthor: %s\nISBN: %s\nTotal Copies: %s\n",
				p.form.Title, p.form.Author, p.form.ISBN, p.form.TotalCopies)
		},
		Footer: []ui.Button{
			{Label: "Cancel"},
			{Label: "Add Book", Variant: ui.Info, Loading: p.creating},
		},
	}.Render(w)
}
