package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-logr/logr"

	"library-portal/api"
	"library-portal/ui"
)

// FinePerDay is the flat fine charged per day late.
const FinePerDay = 10

// IssueService is the issue/return slice of the backend.
type IssueService interface {
	Overdue(ctx context.Context) ([]api.LibraryIssue, error)
	ActiveIssues(ctx context.Context) ([]api.LibraryIssue, error)
	IssuesByUser(ctx context.Context, userID int64) ([]api.LibraryIssue, error)
	AvailableBooks(ctx context.Context) ([]api.Book, error)
	IssueBook(ctx context.Context, req api.IssueRequest) (*api.LibraryIssue, error)
	ReturnBook(ctx context.Context, issueID int64, fine float64) (*api.LibraryIssue, error)
}

// DaysOverdue is the number of started days between due and now. It is zero
// or negative while the book is not yet due.
func DaysOverdue(due, now time.Time) int {
	return int(math.Ceil(float64(now.Sub(due)) / float64(24*time.Hour)))
}

// CalculateFine is max(0, DaysOverdue) × FinePerDay.
func CalculateFine(due, now time.Time) float64 {
	return float64(max(0, DaysOverdue(due, now)) * FinePerDay)
}

type OverduePage struct {
	svc    IssueService
	log    logr.Logger
	now    func() time.Time
	issues State[[]api.LibraryIssue]
	busy   int64
}

func NewOverduePage(svc IssueService, log logr.Logger, now func() time.Time) *OverduePage {
	if now == nil {
		now = time.Now
	}
	return &OverduePage{svc: svc, log: log, now: now}
}

func (p *OverduePage) Issues() State[[]api.LibraryIssue] { return p.issues }
func (p *OverduePage) Busy() int64                       { return p.busy }

// Load fetches the overdue list. A failed fetch is logged and shown as an
// empty list.
func (p *OverduePage) Load(ctx context.Context) {
	p.issues = Loading[[]api.LibraryIssue]()
	rows, err := p.svc.Overdue(ctx)
	if err != nil {
		p.log.Error(err, "Error fetching overdue")
		p.issues = Failed[[]api.LibraryIssue](err)
		return
	}
	p.log.V(1).Info("Overdue issues", "count", len(rows))
	p.issues = Loaded(rows)
}

// Fine returns the fine owed on issue as of now. An unreadable due date owes
// nothing.
func (p *OverduePage) Fine(issue api.LibraryIssue) float64 {
	due, err := api.ParseDate(issue.DueDate)
	if err != nil {
		p.log.Error(err, "bad due date", "issue", issue.ID)
		return 0
	}
	return CalculateFine(due, p.now())
}

// ErrNotOverdue is returned for an issue that is not among the loaded rows.
var ErrNotOverdue = errors.New("not in the overdue list")

// Return closes issue id charging the computed fine, then fetches again. The
// issue must be one of the loaded rows so the fine is always known.
func (p *OverduePage) Return(ctx context.Context, id int64) (float64, error) {
	issue, ok := p.find(id)
	if !ok {
		return 0, fmt.Errorf("issue %d: %w", id, ErrNotOverdue)
	}
	fine := p.Fine(issue)

	p.busy = id
	defer func() { p.busy = 0 }()
	if _, err := p.svc.ReturnBook(ctx, id, fine); err != nil {
		p.log.Error(err, "Error returning book", "issue", id)
		return fine, err
	}
	p.Load(ctx)
	return fine, nil
}

func (p *OverduePage) find(id int64) (api.LibraryIssue, bool) {
	rows, _ := p.issues.Data()
	for _, issue := range rows {
		if issue.ID == id {
			return issue, true
		}
	}
	return api.LibraryIssue{}, false
}

func (p *OverduePage) Render(w io.Writer) {
	fmt.Fprintln(w, "Overdue Books")
	if p.issues.IsLoading() {
		fmt.Fprintln(w, "Loading...")
		return
	}
	rows, _ := p.issues.Data()
	if len(rows) > 0 {
		ui.Banner(w, ui.Warning, "%d books are overdue! Contact the users to collect the books and applicable fines.", len(rows))
	}

	tbl := ui.NewTable("ID", "Book", "User", "Due Date", "Days Overdue", "Fine", "Action")
	tbl.Title = fmt.Sprintf("Overdue Books (%d)", len(rows))
	tbl.Empty = "No overdue books 🎉"
	now := p.now()
	for _, issue := range rows {
		days := "-"
		if due, err := api.ParseDate(issue.DueDate); err == nil {
			days = fmt.Sprintf("%d days", DaysOverdue(due, now))
		}
		ret := ui.Button{Label: "Return", Variant: ui.Info, Loading: p.busy == issue.ID}
		tbl.AddRow(issue.ID, issue.BookTitleOrRef(), issue.Borrower(), displayDate(issue.DueDate),
			days, currency(p.Fine(issue)), ret)
	}
	tbl.Render(w)
}
