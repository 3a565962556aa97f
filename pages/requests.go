package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"

	"library-portal/api"
	"library-portal/ui"
)

// RequestService is the book-request slice of the backend.
type RequestService interface {
	PendingBookRequests(ctx context.Context) ([]api.BookRequest, error)
	RequestsByStatus(ctx context.Context, status api.RequestStatus) ([]api.BookRequest, error)
	ProcessRequest(ctx context.Context, req api.ProcessRequest) (*api.BookRequest, error)
}

// RequestFilter selects which requests are listed.
type RequestFilter string

const (
	FilterPending  RequestFilter = "PENDING"
	FilterApproved RequestFilter = "APPROVED"
	FilterRejected RequestFilter = "REJECTED"
	// FilterAll is served by the pending endpoint; the backend has no
	// unfiltered listing.
	FilterAll RequestFilter = "ALL"
)

// ParseRequestFilter accepts a filter name in any case. Empty means pending.
func ParseRequestFilter(s string) (RequestFilter, error) {
	switch f := RequestFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterPending, nil
	case FilterPending, FilterApproved, FilterRejected, FilterAll:
		return f, nil
	}
	return "", fmt.Errorf("unknown request filter %q (want PENDING, APPROVED, REJECTED or ALL)", s)
}

type BookRequestsPage struct {
	svc      RequestService
	log      logr.Logger
	filter   RequestFilter
	requests State[[]api.BookRequest]
	busy     int64
}

func NewBookRequestsPage(svc RequestService, log logr.Logger) *BookRequestsPage {
	return &BookRequestsPage{svc: svc, log: log, filter: FilterPending}
}

func (p *BookRequestsPage) Filter() RequestFilter              { return p.filter }
func (p *BookRequestsPage) Requests() State[[]api.BookRequest] { return p.requests }
func (p *BookRequestsPage) Busy() int64                        { return p.busy }

// SetFilter switches the filter and fetches again.
func (p *BookRequestsPage) SetFilter(ctx context.Context, f RequestFilter) {
	p.filter = f
	p.Load(ctx)
}

// Load fetches requests for the current filter. A failed fetch is logged
// and shown as an empty list.
func (p *BookRequestsPage) Load(ctx context.Context) {
	p.requests = Loading[[]api.BookRequest]()
	var (
		rows []api.BookRequest
		err  error
	)
	if p.filter == FilterAll {
		rows, err = p.svc.PendingBookRequests(ctx)
	} else {
		rows, err = p.svc.RequestsByStatus(ctx, api.RequestStatus(p.filter))
	}
	if err != nil {
		p.log.Error(err, "Error fetching requests", "filter", p.filter)
		p.requests = Failed[[]api.BookRequest](err)
		return
	}
	p.log.V(1).Info("Requests", "filter", p.filter, "count", len(rows))
	p.requests = Loaded(rows)
}

// ErrNotPending is returned when a request is not a pending row of the
// loaded list. Approved and rejected requests are final.
var ErrNotPending = errors.New("not a pending request")

// Process approves or rejects request id and fetches the list again. Only a
// pending row of the loaded list can be processed. A failure is logged and
// leaves the list as it was.
func (p *BookRequestsPage) Process(ctx context.Context, id int64, action api.RequestAction) error {
	if !p.isPending(id) {
		return fmt.Errorf("request %d: %w", id, ErrNotPending)
	}
	p.busy = id
	defer func() { p.busy = 0 }()
	if _, err := p.svc.ProcessRequest(ctx, api.ProcessRequest{RequestID: id, Action: action}); err != nil {
		p.log.Error(err, "Error processing request", "id", id, "action", action)
		return err
	}
	p.Load(ctx)
	return nil
}

func (p *BookRequestsPage) isPending(id int64) bool {
	rows, _ := p.requests.Data()
	for _, r := range rows {
		if r.ID == id {
			return r.Status == api.StatusPending
		}
	}
	return false
}

// Actions returns the buttons shown for r. Only pending requests can be
// acted on.
func (p *BookRequestsPage) Actions(r api.BookRequest) []ui.Button {
	if r.Status != api.StatusPending {
		return nil
	}
	busy := p.busy == r.ID
	return []ui.Button{
		{Label: "Approve", Key: "a", Variant: ui.Success, Loading: busy},
		{Label: "Reject", Key: "r", Variant: ui.Danger, Loading: busy},
	}
}

func statusBadge(s api.RequestStatus) string {
	switch s {
	case api.StatusPending:
		return "⏳ " + string(s)
	case api.StatusApproved:
		return "✔ " + string(s)
	case api.StatusRejected:
		return "✘ " + string(s)
	}
	return string(s)
}

func (p *BookRequestsPage) Render(w io.Writer) {
	fmt.Fprintln(w, "Book Requests")
	if p.requests.IsLoading() {
		fmt.Fprintln(w, "Loading...")
		return
	}
	rows, _ := p.requests.Data()
	tbl := ui.NewTable("ID", "Student", "Book", "Requested", "Status", "Actions")
	tbl.Title = fmt.Sprintf("Book Requests (%d) [%s]", len(rows), p.filter)
	tbl.Empty = "No requests found"
	for _, r := range rows {
		var actions []string
		for _, b := range p.Actions(r) {
			actions = append(actions, b.String())
		}
		student := r.StudentName
		if student == "" {
			student = fmt.Sprintf("Student #%d", r.StudentID)
		}
		tbl.AddRow(r.ID, student, r.BookTitleOrRef(), displayDate(r.CreatedAt),
			statusBadge(r.Status), strings.Join(actions, " "))
	}
	tbl.Render(w)
}
