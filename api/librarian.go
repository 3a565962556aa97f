package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// LibrarianAPI is one method per librarian endpoint. Each method issues a
// single call and hands back the decoded payload; errors are not handled
// here.
type LibrarianAPI struct {
	c *Client
}

func NewLibrarianAPI(c *Client) *LibrarianAPI { return &LibrarianAPI{c: c} }

// Dashboard

func (l *LibrarianAPI) Stats(ctx context.Context) (*DashboardStats, error) {
	l.c.log.V(1).Info("Fetching librarian stats")
	var stats DashboardStats
	if err := l.c.Get(ctx, "/api/librarian/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (l *LibrarianAPI) MyProfile(ctx context.Context) (*LibrarianProfile, error) {
	l.c.log.V(1).Info("Fetching librarian profile")
	var profile LibrarianProfile
	if err := l.c.Get(ctx, "/api/librarian/dashboard/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (l *LibrarianAPI) DashboardPendingRequests(ctx context.Context) ([]BookRequest, error) {
	l.c.log.V(1).Info("Fetching pending book requests")
	return getList[BookRequest](ctx, l.c, "/api/librarian/dashboard/pending-requests", nil)
}

func (l *LibrarianAPI) DashboardOverdue(ctx context.Context) ([]LibraryIssue, error) {
	l.c.log.V(1).Info("Fetching overdue issues")
	return getList[LibraryIssue](ctx, l.c, "/api/librarian/dashboard/overdue", nil)
}

func (l *LibrarianAPI) DashboardAvailableBooks(ctx context.Context) ([]Book, error) {
	l.c.log.V(1).Info("Fetching available books")
	return getList[Book](ctx, l.c, "/api/librarian/dashboard/available-books", nil)
}

// Books

func (l *LibrarianAPI) AddBook(ctx context.Context, book NewBook) (*Book, error) {
	l.c.log.V(1).Info("Adding book", "title", book.Title, "author", book.Author)
	var created Book
	if err := l.c.Post(ctx, "/api/books", book, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (l *LibrarianAPI) AllBooks(ctx context.Context) ([]Book, error) {
	l.c.log.V(1).Info("Fetching all books")
	return getList[Book](ctx, l.c, "/api/books", nil)
}

func (l *LibrarianAPI) AvailableBooks(ctx context.Context) ([]Book, error) {
	l.c.log.V(1).Info("Fetching available books")
	return getList[Book](ctx, l.c, "/api/books/available", nil)
}

func (l *LibrarianAPI) SearchByTitle(ctx context.Context, title string) ([]Book, error) {
	l.c.log.V(1).Info("Searching books by title", "title", title)
	return getList[Book](ctx, l.c, "/api/books/search/title", url.Values{"title": {title}})
}

func (l *LibrarianAPI) SearchByAuthor(ctx context.Context, author string) ([]Book, error) {
	l.c.log.V(1).Info("Searching books by author", "author", author)
	return getList[Book](ctx, l.c, "/api/books/search/author", url.Values{"author": {author}})
}

func (l *LibrarianAPI) DeleteBook(ctx context.Context, id int64) error {
	l.c.log.V(1).Info("Deleting book", "id", id)
	return l.c.Delete(ctx, fmt.Sprintf("/api/books/%d", id), nil)
}

// Book requests

func (l *LibrarianAPI) ProcessRequest(ctx context.Context, req ProcessRequest) (*BookRequest, error) {
	l.c.log.V(1).Info("Processing book request", "id", req.RequestID, "action", req.Action)
	var processed BookRequest
	if err := l.c.Put(ctx, "/api/book-requests/process", nil, req, &processed); err != nil {
		return nil, err
	}
	return &processed, nil
}

func (l *LibrarianAPI) PendingBookRequests(ctx context.Context) ([]BookRequest, error) {
	l.c.log.V(1).Info("Fetching pending book requests")
	return getList[BookRequest](ctx, l.c, "/api/book-requests/pending", nil)
}

func (l *LibrarianAPI) RequestsByStatus(ctx context.Context, status RequestStatus) ([]BookRequest, error) {
	l.c.log.V(1).Info("Fetching requests by status", "status", status)
	return getList[BookRequest](ctx, l.c, "/api/book-requests/status/"+url.PathEscape(string(status)), nil)
}

// Library issues

func (l *LibrarianAPI) IssueBook(ctx context.Context, req IssueRequest) (*LibraryIssue, error) {
	l.c.log.V(1).Info("Issuing book", "book", req.BookID, "user", req.UserID)
	var issue LibraryIssue
	if err := l.c.Post(ctx, "/api/library-issues/issue", req, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ReturnBook closes an issue, charging fine.
func (l *LibrarianAPI) ReturnBook(ctx context.Context, issueID int64, fine float64) (*LibraryIssue, error) {
	l.c.log.V(1).Info("Returning book", "issueId", issueID, "fineAmount", fine)
	query := url.Values{"fineAmount": {strconv.FormatFloat(fine, 'f', -1, 64)}}
	var issue LibraryIssue
	if err := l.c.Put(ctx, fmt.Sprintf("/api/library-issues/%d/return", issueID), query, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (l *LibrarianAPI) IssuesByUser(ctx context.Context, userID int64) ([]LibraryIssue, error) {
	l.c.log.V(1).Info("Fetching issues by user", "user", userID)
	return getList[LibraryIssue](ctx, l.c, fmt.Sprintf("/api/library-issues/user/%d", userID), nil)
}

func (l *LibrarianAPI) Overdue(ctx context.Context) ([]LibraryIssue, error) {
	l.c.log.V(1).Info("Fetching overdue issues")
	return getList[LibraryIssue](ctx, l.c, "/api/library-issues/overdue", nil)
}

func (l *LibrarianAPI) ActiveIssues(ctx context.Context) ([]LibraryIssue, error) {
	l.c.log.V(1).Info("Fetching active issues")
	return getList[LibraryIssue](ctx, l.c, "/api/library-issues/active", nil)
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var rows List[T]
	if err := c.Get(ctx, path, query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
