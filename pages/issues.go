package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"library-portal/api"
	"library-portal/ui"
)

// DefaultLoanPeriod is how far ahead the due date is proposed.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// IssueForm is the issue-book form as typed.
type IssueForm struct {
	BookID  string `json:"bookId" validate:"required"`
	UserID  string `json:"userId" validate:"required"`
	DueDate string `json:"dueDate" validate:"required"`
}

// IssuesData is what the issues page shows: books that can be lent and the
// open issues.
type IssuesData struct {
	Books  []api.Book
	Issues []api.LibraryIssue
}

type IssuesPage struct {
	svc IssueService
	log logr.Logger
	now func() time.Time

	data      State[IssuesData]
	shelf     bool
	busy      int64
	issuing   bool
	notice    string
	formError string
}

func NewIssuesPage(svc IssueService, log logr.Logger, now func() time.Time) *IssuesPage {
	if now == nil {
		now = time.Now
	}
	return &IssuesPage{svc: svc, log: log, now: now}
}

func (p *IssuesPage) Data() State[IssuesData] { return p.data }
func (p *IssuesPage) Busy() int64             { return p.busy }
func (p *IssuesPage) Notice() string          { return p.notice }
func (p *IssuesPage) FormError() string       { return p.formError }

// DefaultDueDate proposes a due date DefaultLoanPeriod from today.
func (p *IssuesPage) DefaultDueDate() string {
	return api.FormatDate(p.now().Add(DefaultLoanPeriod))
}

// Load fetches available books and active issues together. If either call
// fails the page shows empty lists.
func (p *IssuesPage) Load(ctx context.Context) {
	p.data = Loading[IssuesData]()
	p.shelf = true
	var data IssuesData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		books, err := p.svc.AvailableBooks(gctx)
		data.Books = books
		return err
	})
	g.Go(func() error {
		issues, err := p.svc.ActiveIssues(gctx)
		data.Issues = issues
		return err
	})
	if err := g.Wait(); err != nil {
		p.log.Error(err, "Error fetching data")
		p.data = Failed[IssuesData](err)
		return
	}
	p.data = Loaded(data)
}

// LoadForUser lists every issue of one user.
func (p *IssuesPage) LoadForUser(ctx context.Context, userID int64) {
	p.data = Loading[IssuesData]()
	p.shelf = false
	issues, err := p.svc.IssuesByUser(ctx, userID)
	if err != nil {
		p.log.Error(err, "Error fetching user issues", "user", userID)
		p.data = Failed[IssuesData](err)
		return
	}
	p.data = Loaded(IssuesData{Issues: issues})
}

// Issue lends a book dated today and fetches again.
func (p *IssuesPage) Issue(ctx context.Context, form IssueForm) error {
	p.formError = ""
	if err := validate.Struct(form); err != nil {
		return p.failIssue(&Error{Message: "All fields are required", Err: err})
	}
	bookID, err := strconv.ParseInt(strings.TrimSpace(form.BookID), 10, 64)
	if err != nil {
		return p.failIssue(&Error{Message: "Book ID must be a number", Err: err})
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(form.UserID), 10, 64)
	if err != nil {
		return p.failIssue(&Error{Message: "User ID must be a number", Err: err})
	}

	p.issuing = true
	defer func() { p.issuing = false }()
	_, err = p.svc.IssueBook(ctx, api.IssueRequest{
		BookID:    bookID,
		UserID:    userID,
		IssueDate: api.FormatDate(p.now()),
		DueDate:   form.DueDate,
	})
	if err != nil {
		p.log.Error(err, "Error issuing book")
		return p.failIssue(failure(err, "Failed to issue book"))
	}
	p.notice = "Book issued successfully!"
	p.Load(ctx)
	return nil
}

func (p *IssuesPage) failIssue(e *Error) error {
	p.formError = e.Message
	return e
}

// Return closes issue id without a fine and fetches again.
func (p *IssuesPage) Return(ctx context.Context, id int64) error {
	p.busy = id
	defer func() { p.busy = 0 }()
	if _, err := p.svc.ReturnBook(ctx, id, 0); err != nil {
		p.log.Error(err, "Error returning book", "issue", id)
		return err
	}
	p.Load(ctx)
	p.notice = "Book returned!"
	return nil
}

func (p *IssuesPage) Render(w io.Writer) {
	fmt.Fprintln(w, "Issue Books")
	if p.notice != "" {
		ui.Banner(w, ui.Success, "%s", p.notice)
	}
	if p.formError != "" {
		ui.Banner(w, ui.Danger, "%s", p.formError)
	}
	if p.data.IsLoading() {
		fmt.Fprintln(w, "Loading...")
		return
	}
	if p.shelf {
		p.RenderAvailable(w)
	}
	data, _ := p.data.Data()
	tbl := ui.NewTable("ID", "Book", "User", "Issued", "Due", "Status", "Action")
	tbl.Title = "Issued Books"
	tbl.Empty = "No books currently issued"
	for _, issue := range data.Issues {
		var action any = ""
		if issue.ReturnDate == "" {
			action = ui.Button{Label: "Return", Variant: ui.Info, Loading: p.busy == issue.ID}
		}
		tbl.AddRow(issue.ID, issue.BookTitleOrRef(), issue.Borrower(), displayDate(issue.IssueDate),
			displayDate(issue.DueDate), orDash(issue.Status), action)
	}
	tbl.Render(w)
}

// RenderAvailable lists the books that can be picked for a new issue.
func (p *IssuesPage) RenderAvailable(w io.Writer) {
	data, _ := p.data.Data()
	tbl := ui.NewTable("ID", "Title", "Author", "Available")
	tbl.Title = "Available Books"
	tbl.Empty = "No books available"
	for _, b := range data.Books {
		tbl.AddRow(b.ID, b.Title, b.Author, fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies))
	}
	tbl.Render(w)
}
