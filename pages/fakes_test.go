package pages

import (
	"context"
	"sync"
	"time"

	"github.com/fatih/color"

	"library-portal/api"
	"library-portal/auth"
	"library-portal/session"
)

func init() {
	color.NoColor = true
}

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeNav struct {
	path    string
	visited []string
}

func (f *fakeNav) Path() string { return f.path }

func (f *fakeNav) Navigate(path string) {
	f.visited = append(f.visited, path)
	f.path = path
}

// immediateScheduler runs callbacks at once and remembers the delays.
type immediateScheduler struct {
	delays []time.Duration
}

func (s *immediateScheduler) AfterFunc(d time.Duration, f func()) {
	s.delays = append(s.delays, d)
	f()
}

type fakeAuth struct {
	user        *session.User
	loginRes    *auth.Result
	loginErr    error
	registerRes *auth.Result
	registerErr error
	registered  []api.RegisterRequest
	logins      int
	logouts     int
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*auth.Result, error) {
	f.logins++
	return f.loginRes, f.loginErr
}

func (f *fakeAuth) Register(_ context.Context, req api.RegisterRequest) (*auth.Result, error) {
	f.registered = append(f.registered, req)
	return f.registerRes, f.registerErr
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	f.user = nil
	return nil
}

func (f *fakeAuth) User() *session.User { return f.user }

type fakePasswords struct {
	resp     *api.MessageResponse
	err      error
	changes  []api.PasswordChange
	resets   []string
	confirms []api.PasswordResetConfirm
}

func (f *fakePasswords) calls() int { return len(f.changes) + len(f.resets) + len(f.confirms) }

func (f *fakePasswords) Change(_ context.Context, req api.PasswordChange) (*api.MessageResponse, error) {
	f.changes = append(f.changes, req)
	return f.resp, f.err
}

func (f *fakePasswords) RequestReset(_ context.Context, email string) (*api.MessageResponse, error) {
	f.resets = append(f.resets, email)
	return f.resp, f.err
}

func (f *fakePasswords) ConfirmReset(_ context.Context, req api.PasswordResetConfirm) (*api.MessageResponse, error) {
	f.confirms = append(f.confirms, req)
	return f.resp, f.err
}

type returnCall struct {
	id   int64
	fine float64
}

// fakeLibrary stands in for the librarian endpoints. during, when set, runs
// inside every call so tests can look at page state mid-flight.
type fakeLibrary struct {
	mu     sync.Mutex
	calls  []string
	during func(call string)

	books     []api.Book
	available []api.Book
	booksErr  error
	found     []api.Book
	searched  []string
	added     []api.NewBook
	addErr    error
	deleted   []int64
	deleteErr error

	pending     []api.BookRequest
	byStatus    map[api.RequestStatus][]api.BookRequest
	requestsErr error
	processed   []api.ProcessRequest
	processErr  error

	overdue    []api.LibraryIssue
	active     []api.LibraryIssue
	userIssues []api.LibraryIssue
	issuesErr  error
	issued     []api.IssueRequest
	issueErr   error
	returned   []returnCall
	returnErr  error

	stats      *api.DashboardStats
	statsErr   error
	profile    *api.LibrarianProfile
	profileErr error
	uploads    []string
	uploadErr  error
}

func (f *fakeLibrary) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.during != nil {
		f.during(call)
	}
}

func (f *fakeLibrary) AllBooks(context.Context) ([]api.Book, error) {
	f.record("AllBooks")
	return f.books, f.booksErr
}

func (f *fakeLibrary) AvailableBooks(context.Context) ([]api.Book, error) {
	f.record("AvailableBooks")
	return f.available, f.booksErr
}

func (f *fakeLibrary) SearchByTitle(_ context.Context, title string) ([]api.Book, error) {
	f.record("SearchByTitle")
	f.searched = append(f.searched, title)
	return f.found, f.booksErr
}

func (f *fakeLibrary) SearchByAuthor(_ context.Context, author string) ([]api.Book, error) {
	f.record("SearchByAuthor")
	f.searched = append(f.searched, author)
	return f.found, f.booksErr
}

func (f *fakeLibrary) AddBook(_ context.Context, book api.NewBook) (*api.Book, error) {
	f.record("AddBook")
	f.added = append(f.added, book)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &api.Book{ID: 99, Title: book.Title}, nil
}

func (f *fakeLibrary) DeleteBook(_ context.Context, id int64) error {
	f.record("DeleteBook")
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeLibrary) PendingBookRequests(context.Context) ([]api.BookRequest, error) {
	f.record("PendingBookRequests")
	return f.pending, f.requestsErr
}

func (f *fakeLibrary) RequestsByStatus(_ context.Context, status api.RequestStatus) ([]api.BookRequest, error) {
	f.record("RequestsByStatus:" + string(status))
	return f.byStatus[status], f.requestsErr
}

func (f *fakeLibrary) ProcessRequest(_ context.Context, req api.ProcessRequest) (*api.BookRequest, error) {
	f.record("ProcessRequest")
	f.processed = append(f.processed, req)
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &api.BookRequest{ID: req.RequestID}, nil
}

func (f *fakeLibrary) Overdue(context.Context) ([]api.LibraryIssue, error) {
	f.record("Overdue")
	return f.overdue, f.issuesErr
}

func (f *fakeLibrary) ActiveIssues(context.Context) ([]api.LibraryIssue, error) {
	f.record("ActiveIssues")
	return f.active, f.issuesErr
}

func (f *fakeLibrary) IssuesByUser(context.Context, int64) ([]api.LibraryIssue, error) {
	f.record("IssuesByUser")
	return f.userIssues, f.issuesErr
}

func (f *fakeLibrary) IssueBook(_ context.Context, req api.IssueRequest) (*api.LibraryIssue, error) {
	f.record("IssueBook")
	f.issued = append(f.issued, req)
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &api.LibraryIssue{ID: 1}, nil
}

func (f *fakeLibrary) ReturnBook(_ context.Context, id int64, fine float64) (*api.LibraryIssue, error) {
	f.record("ReturnBook")
	f.returned = append(f.returned, returnCall{id, fine})
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	return &api.LibraryIssue{ID: id, FineAmount: fine}, nil
}

func (f *fakeLibrary) Stats(context.Context) (*api.DashboardStats, error) {
	f.record("Stats")
	return f.stats, f.statsErr
}

func (f *fakeLibrary) DashboardPendingRequests(context.Context) ([]api.BookRequest, error) {
	f.record("DashboardPendingRequests")
	return f.pending, f.requestsErr
}

func (f *fakeLibrary) DashboardOverdue(context.Context) ([]api.LibraryIssue, error) {
	f.record("DashboardOverdue")
	return f.overdue, f.issuesErr
}

func (f *fakeLibrary) MyProfile(context.Context) (*api.LibrarianProfile, error) {
	f.record("MyProfile")
	return f.profile, f.profileErr
}

func (f *fakeLibrary) UploadImage(_ context.Context, filename, contentType string, _ []byte) error {
	f.record("UploadImage")
	f.uploads = append(f.uploads, filename+" "+contentType)
	return f.uploadErr
}
