package api

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the workflow state of a book request. Only PENDING moves;
// APPROVED and REJECTED are terminal.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// RequestAction is what a librarian does to a pending request.
type RequestAction string

const (
	ActionApprove RequestAction = "APPROVE"
	ActionReject  RequestAction = "REJECT"
)

// AuthRequest is the login body.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration body.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role,omitempty"`

	// AdditionalID is the enrollment year for students, else the employee id.
	AdditionalID string `json:"additionalId,omitempty"`
	Department   string `json:"department,omitempty"`
}

// AuthResponse is returned by login and (optionally) register.
type AuthResponse struct {
	Token              string `json:"token"`
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

// MessageResponse is the {success, message} envelope of the password endpoints.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PasswordChange is the body of /api/password/change.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PasswordResetConfirm is the body of /api/password/reset/confirm.
type PasswordResetConfirm struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// DashboardStats are the librarian dashboard counters.
type DashboardStats struct {
	TotalBooks      int64 `json:"totalBooks"`
	AvailableBooks  int64 `json:"availableBooks"`
	IssuedBooks     int64 `json:"issuedBooks"`
	OverdueBooks    int64 `json:"overdueBooks"`
	PendingRequests int64 `json:"pendingRequests"`
	TodayIssued     int64 `json:"todayIssued"`
	TodayReturned   int64 `json:"todayReturned"`
}

// LibrarianProfile is the signed-in librarian's profile.
type LibrarianProfile struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	EmployeeID      string `json:"employeeId"`
	Phone           string `json:"phone"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Book is a catalogue entry. AvailableCopies is maintained by the server.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
	Category        string `json:"category,omitempty"`
}

func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	if err := json.Unmarshal(data, (*plain)(b)); err != nil {
		return err
	}
	if b.ID == 0 {
		var alt struct {
			ID int64 `json:"bookId"`
		}
		if err := json.Unmarshal(data, &alt); err != nil {
			return err
		}
		b.ID = alt.ID
	}
	return nil
}

// NewBook is the add-book body.
type NewBook struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"totalCopies"`
	Category    string `json:"category,omitempty"`
}

// BookRequest is a user's request to borrow a book.
type BookRequest struct {
	ID          int64         `json:"id"`
	StudentID   int64         `json:"studentId"`
	StudentName string        `json:"studentName"`
	BookID      int64         `json:"bookId"`
	BookTitle   string        `json:"bookTitle"`
	Status      RequestStatus `json:"status"`
	Remarks     string        `json:"remarks,omitempty"`
	CreatedAt   string        `json:"createdAt"`
}

func (r *BookRequest) UnmarshalJSON(data []byte) error {
	type plain BookRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	if r.ID == 0 {
		var alt struct {
			ID int64 `json:"requestId"`
		}
		if err := json.Unmarshal(data, &alt); err != nil {
			return err
		}
		r.ID = alt.ID
	}
	return nil
}

// BookTitleOrRef returns the title, or a placeholder naming the book id.
func (r BookRequest) BookTitleOrRef() string {
	if r.BookTitle != "" {
		return r.BookTitle
	}
	return fmt.Sprintf("Book #%d", r.BookID)
}

// ProcessRequest is the body of PUT /api/book-requests/process.
type ProcessRequest struct {
	RequestID int64         `json:"requestId"`
	Action    RequestAction `json:"action"`
	Remarks   string        `json:"remarks,omitempty"`
}

// IssueRequest is the body of POST /api/library-issues/issue.
type IssueRequest struct {
	BookID    int64  `json:"bookId"`
	UserID    int64  `json:"userId"`
	IssueDate string `json:"issueDate"`
	DueDate   string `json:"dueDate"`
}

// LibraryIssue is a book lent to a user. It is open until returned.
type LibraryIssue struct {
	ID         int64   `json:"id"`
	BookID     int64   `json:"bookId"`
	BookTitle  string  `json:"bookTitle"`
	UserID     int64   `json:"userId"`
	UserName   string  `json:"userName"`
	UserEmail  string  `json:"userEmail"`
	IssueDate  string  `json:"issueDate"`
	DueDate    string  `json:"dueDate"`
	ReturnDate string  `json:"returnDate,omitempty"`
	FineAmount float64 `json:"fineAmount"`
	Status     string  `json:"status"`
}

func (i *LibraryIssue) UnmarshalJSON(data []byte) error {
	type plain LibraryIssue
	if err := json.Unmarshal(data, (*plain)(i)); err != nil {
		return err
	}
	if i.ID == 0 {
		var alt struct {
			ID int64 `json:"issueId"`
		}
		if err := json.Unmarshal(data, &alt); err != nil {
			return err
		}
		i.ID = alt.ID
	}
	return nil
}

// BookTitleOrRef returns the title, or a placeholder naming the book id.
func (i LibraryIssue) BookTitleOrRef() string {
	if i.BookTitle != "" {
		return i.BookTitle
	}
	return fmt.Sprintf("Book #%d", i.BookID)
}

// Borrower returns the best available name for the user holding the book.
func (i LibraryIssue) Borrower() string {
	switch {
	case i.UserName != "":
		return i.UserName
	case i.UserEmail != "":
		return i.UserEmail
	}
	return fmt.Sprintf("User #%d", i.UserID)
}

// List decodes either a JSON array or a paged object carrying the rows in
// "content". Anything else decodes to an empty list.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case data[0] == '[':
		var rows []T
		if err := json.Unmarshal(data, &rows); err != nil {
			return err
		}
		*l = rows
		return nil
	case data[0] == '{':
		var page struct {
			Content []T `json:"content"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		*l = page.Content
		return nil
	}
	*l = nil
	return nil
}

const dateLayout = "2006-01-02"

// ParseDate reads the date formats the backend emits. A bare date is midnight
// UTC; a date-time without zone is local time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatDate renders a date the way the backend expects it in request bodies.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
