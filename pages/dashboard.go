package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"library-portal/api"
	"library-portal/session"
	"library-portal/ui"
)

type DashboardService interface {
	Stats(ctx context.Context) (*api.DashboardStats, error)
	DashboardPendingRequests(ctx context.Context) ([]api.BookRequest, error)
	DashboardOverdue(ctx context.Context) ([]api.LibraryIssue, error)
}

// Dashboard is the librarian landing view. Stats is nil when they could not
// be fetched.
type Dashboard struct {
	Stats   *api.DashboardStats
	Pending []api.BookRequest
	Overdue []api.LibraryIssue
}

// PendingCount prefers the server counter and falls back to the list.
func (d Dashboard) PendingCount() int64 {
	if d.Stats != nil && d.Stats.PendingRequests > 0 {
		return d.Stats.PendingRequests
	}
	return int64(len(d.Pending))
}

func (d Dashboard) OverdueCount() int64 {
	if d.Stats != nil && d.Stats.OverdueBooks > 0 {
		return d.Stats.OverdueBooks
	}
	return int64(len(d.Overdue))
}

const dashboardPreview = 5

type DashboardPage struct {
	svc   DashboardService
	user  func() *session.User
	log   logr.Logger
	state State[Dashboard]
}

func NewDashboardPage(svc DashboardService, user func() *session.User, log logr.Logger) *DashboardPage {
	return &DashboardPage{svc: svc, user: user, log: log}
}

func (p *DashboardPage) State() State[Dashboard] { return p.state }

// Load fetches the three panels in parallel. Each one falls back to empty
// on its own; the page itself never fails.
func (p *DashboardPage) Load(ctx context.Context) {
	p.state = Loading[Dashboard]()
	var d Dashboard
	var g errgroup.Group
	g.Go(func() error {
		stats, err := p.svc.Stats(ctx)
		if err != nil {
			p.log.Error(err, "Error fetching stats")
			return nil
		}
		d.Stats = stats
		return nil
	})
	g.Go(func() error {
		pending, err := p.svc.DashboardPendingRequests(ctx)
		if err != nil {
			p.log.Error(err, "Error fetching pending requests")
			return nil
		}
		d.Pending = pending
		return nil
	})
	g.Go(func() error {
		overdue, err := p.svc.DashboardOverdue(ctx)
		if err != nil {
			p.log.Error(err, "Error fetching overdue issues")
			return nil
		}
		d.Overdue = overdue
		return nil
	})
	_ = g.Wait()
	p.state = Loaded(d)
}

func (p *DashboardPage) Render(w io.Writer) {
	d, ok := p.state.Data()
	if !ok {
		fmt.Fprintln(w, "Loading...")
		return
	}
	name := "Librarian"
	if u := p.user(); u != nil && u.FirstName != "" {
		name = u.FirstName
	}
	fmt.Fprintf(w, "Welcome, %s! 📚\n", name)
	fmt.Fprintln(w, "Manage your library resources efficiently.")

	var stats api.DashboardStats
	if d.Stats != nil {
		stats = *d.Stats
	}
	cards := ui.NewTable("Total Books", "Available Books", "Pending Requests", "Overdue Books", "Issued Today", "Returned Today")
	cards.AddRow(stats.TotalBooks, stats.AvailableBooks, d.PendingCount(), d.OverdueCount(),
		stats.TodayIssued, stats.TodayReturned)
	cards.Render(w)

	pending := ui.NewTable("Student", "Book", "Requested")
	pending.Title = "Pending Requests"
	pending.Empty = "No pending requests"
	for _, r := range d.Pending[:min(len(d.Pending), dashboardPreview)] {
		pending.AddRow(orDash(r.StudentName), r.BookTitleOrRef(), displayDate(r.CreatedAt))
	}
	pending.Render(w)

	overdue := ui.NewTable("Book", "User", "Due Date")
	overdue.Title = "Overdue Books"
	overdue.Empty = "No overdue books"
	for _, i := range d.Overdue[:min(len(d.Overdue), dashboardPreview)] {
		overdue.AddRow(i.BookTitleOrRef(), i.Borrower(), displayDate(i.DueDate))
	}
	overdue.Render(w)
}
