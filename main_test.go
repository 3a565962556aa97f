package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-portal/config"
	"library-portal/pages"
	"library-portal/session"
)

func init() {
	color.NoColor = true
}

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

// harness runs commands against a fake backend with an in-memory session.
type harness struct {
	t     *testing.T
	cli   *cli
	out   *bytes.Buffer
	store *session.MemoryStore

	mu   sync.Mutex
	reqs []recorded
}

func newHarness(t *testing.T, mux *http.ServeMux, input string) *harness {
	t.Helper()
	h := &harness{t: t, out: &bytes.Buffer{}, store: session.NewMemoryStore()}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		h.mu.Lock()
		h.reqs = append(h.reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})
		h.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	h.cli = newCLI(strings.NewReader(input), h.out, h.out)
	h.cli.store = h.store
	h.cli.instantRedirects = true
	h.cli.loadConfig = func() (*config.Config, error) {
		return &config.Config{
			APIBaseURL:  srv.URL,
			AppName:     config.DefaultAppName,
			SessionPath: filepath.Join(t.TempDir(), "unused.db"),
			Timeout:     5 * time.Second,
		}, nil
	}
	t.Cleanup(h.cli.close)
	return h
}

func (h *harness) run(args ...string) error {
	return h.cli.execute(context.Background(), args)
}

func (h *harness) requests() []recorded {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]recorded(nil), h.reqs...)
}

func (h *harness) find(method, path string) (recorded, bool) {
	for _, r := range h.requests() {
		if r.method == method && r.path == path {
			return r, true
		}
	}
	return recorded{}, false
}

func testToken(t *testing.T, role session.Role) string {
	t.Helper()
	claims := session.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// signIn stores a session as a previous login would have.
func (h *harness) signIn(role session.Role) string {
	token := testToken(h.t, role)
	user := session.User{ID: 7, Email: "ada.byron.2024@sms.edu.in", Role: role, FirstName: "Ada", LastName: "Byron"}
	require.NoError(h.t, session.New(h.store, logr.Discard()).Start(token, user))
	return token
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, status, body) }
}

func TestLoginStoresSession(t *testing.T) {
	token := testToken(t, session.RoleLibrarian)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", reply(200, `{"token":"`+token+`","id":7,"email":"lib@sms.edu.in","role":"LIBRARIAN","firstName":"Ada","lastName":"Byron"}`))
	h := newHarness(t, mux, "lib@sms.edu.in\nsecret123\n")

	require.NoError(t, h.run("login"))

	assert.Contains(t, h.out.String(), "Signed in as lib@sms.edu.in (Librarian)")
	raw, ok, err := h.store.Get(session.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, token)

	req, ok := h.find("POST", "/api/auth/login")
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"lib@sms.edu.in","password":"secret123"}`, req.body)
	assert.Empty(t, req.auth)
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", reply(401, `{"message":"Invalid credentials"}`))
	h := newHarness(t, mux, "wrongpass\n")

	err := h.run("login", "--email", "lib@sms.edu.in")
	require.Error(t, err)
	assert.ErrorIs(t, err, errShown)
	assert.Contains(t, h.out.String(), "[x] Invalid credentials")
	assert.NotContains(t, h.out.String(), "Redirecting to login")
}

func TestLoginFailureWhileSignedInStaysQuiet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", reply(401, `{"message":"Invalid credentials"}`))
	h := newHarness(t, mux, "wrongpass\n")
	h.signIn(session.RoleLibrarian)

	err := h.run("login", "--email", "ada.byron.2024@sms.edu.in")
	require.ErrorIs(t, err, errShown)
	assert.Contains(t, h.out.String(), "[x] Invalid credentials")
	assert.NotContains(t, h.out.String(), "Redirecting to login")
	assert.Equal(t, "/login", h.cli.app.router.Path())
}

func TestLoginValidationNeverCallsBackend(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "not-an-email\n123\n")

	err := h.run("login")
	require.Error(t, err)
	assert.Contains(t, h.out.String(), "Please enter a valid email")
	assert.Contains(t, h.out.String(), "Password must be at least 6 characters")
	assert.Empty(t, h.requests())
}

func TestProtectedCommandNeedsSession(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "")

	err := h.run("books", "list")
	assert.ErrorIs(t, err, errNotSignedIn)
	assert.Contains(t, h.out.String(), "You are not signed in.")
	assert.Empty(t, h.requests())
}

func TestProtectedCommandNeedsLibrarian(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "")
	h.signIn(session.RoleStudent)

	err := h.run("dashboard")
	assert.ErrorIs(t, err, errAccessDenied)
	assert.Contains(t, h.out.String(), "Access denied (403)")
	assert.Empty(t, h.requests())
}

func TestBooksListSendsBearer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/books", reply(200, `[{"id":1,"title":"Dune","author":"Frank Herbert","totalCopies":3,"availableCopies":2}]`))
	h := newHarness(t, mux, "")
	token := h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("books", "list"))

	assert.Contains(t, h.out.String(), "Dune")
	assert.Contains(t, h.out.String(), "Frank Herbert")
	req, ok := h.find("GET", "/api/books")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+token, req.auth)
}

func TestUnauthorizedResponseEndsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/books", reply(401, `{"message":"Token expired"}`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("books", "list"))

	assert.Contains(t, h.out.String(), "Redirecting to login")
	assert.Contains(t, h.out.String(), "No books found")
	_, ok, err := h.store.Get(session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBooksDeleteWithConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/books/3", reply(200, `{}`))
	mux.HandleFunc("GET /api/books", reply(200, `[]`))

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t, mux, "y\n")
		h.signIn(session.RoleLibrarian)
		require.NoError(t, h.run("books", "delete", "3"))
		_, ok := h.find("DELETE", "/api/books/3")
		assert.True(t, ok)
		assert.Contains(t, h.out.String(), pages.DeleteBookConfirmation)
		assert.Contains(t, h.out.String(), "Book 3 deleted")
	})

	t.Run("declined", func(t *testing.T) {
		h := newHarness(t, mux, "n\n")
		h.signIn(session.RoleLibrarian)
		require.NoError(t, h.run("books", "delete", "3"))
		assert.Empty(t, h.requests())
		assert.Contains(t, h.out.String(), "Nothing deleted")
	})

	t.Run("yes flag", func(t *testing.T) {
		h := newHarness(t, mux, "")
		h.signIn(session.RoleLibrarian)
		require.NoError(t, h.run("books", "delete", "3", "--yes"))
		_, ok := h.find("DELETE", "/api/books/3")
		assert.True(t, ok)
	})
}

func TestBooksAddFromFlags(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/books", reply(201, `{"id":9,"title":"Dune"}`))
	mux.HandleFunc("GET /api/books", reply(200, `[{"id":9,"title":"Dune","author":"Frank Herbert"}]`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("books", "add", "--title", "Dune", "--author", "Frank Herbert", "--isbn", "", "--copies", "3"))

	req, ok := h.find("POST", "/api/books")
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"Dune","author":"Frank Herbert","isbn":"","totalCopies":3}`, req.body)
}

func TestBooksAddReportsServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/books", reply(409, `{"message":"ISBN already exists"}`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	err := h.run("books", "add", "--title", "Dune", "--author", "Frank Herbert", "--isbn", "1", "--copies", "1")
	assert.ErrorIs(t, err, errShown)
	assert.Contains(t, h.out.String(), "ISBN already exists")
}

func TestRequestsApprove(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/book-requests/process", reply(200, `{"id":42,"status":"APPROVED"}`))
	mux.HandleFunc("GET /api/book-requests/status/PENDING", reply(200, `[{"id":42,"studentId":3,"bookId":9,"status":"PENDING"}]`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("requests", "approve", "42"))

	req, ok := h.find("PUT", "/api/book-requests/process")
	require.True(t, ok)
	assert.JSONEq(t, `{"requestId":42,"action":"APPROVE"}`, req.body)
	_, refetched := h.find("GET", "/api/book-requests/status/PENDING")
	assert.True(t, refetched)
}

func TestRequestsRejectNeedsPendingRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/book-requests/process", reply(200, `{}`))
	mux.HandleFunc("GET /api/book-requests/status/PENDING", reply(200, `[{"id":42,"status":"PENDING"}]`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	err := h.run("requests", "reject", "43")
	assert.ErrorIs(t, err, pages.ErrNotPending)
	assert.Contains(t, h.out.String(), "request 43: not a pending request")
	_, sent := h.find("PUT", "/api/book-requests/process")
	assert.False(t, sent)
}

func TestRequestsListRejectsUnknownStatus(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "")
	h.signIn(session.RoleLibrarian)

	err := h.run("requests", "list", "--status", "LOST")
	require.Error(t, err)
	assert.Contains(t, h.out.String(), "unknown request filter")
}

func TestOverdueReturnChargesFine(t *testing.T) {
	due := time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/library-issues/overdue", reply(200, `[{"id":5,"bookTitle":"Dune","userName":"Sam","dueDate":"`+due+`"}]`))
	mux.HandleFunc("PUT /api/library-issues/5/return", reply(200, `{"id":5}`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("overdue", "return", "5"))

	req, ok := h.find("PUT", "/api/library-issues/5/return")
	require.True(t, ok)
	fine, err := strconv.ParseFloat(strings.TrimPrefix(req.query, "fineAmount="), 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fine, float64(3*pages.FinePerDay))
	assert.Contains(t, h.out.String(), "Issue 5 returned")
}

func TestOverdueReturnNeedsListedIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/library-issues/overdue", reply(500, `{"message":"transient"}`))
	mux.HandleFunc("PUT /api/library-issues/9/return", reply(200, `{"id":9}`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	err := h.run("overdue", "return", "9")
	assert.ErrorIs(t, err, pages.ErrNotOverdue)
	_, sent := h.find("PUT", "/api/library-issues/9/return")
	assert.False(t, sent)
}

func TestIssuesIssueShowsAvailableBooks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/library-issues/issue", reply(201, `{"id":1}`))
	mux.HandleFunc("GET /api/books/available", reply(200, `[{"id":3,"title":"Dune","author":"Frank Herbert","totalCopies":2,"availableCopies":1}]`))
	mux.HandleFunc("GET /api/library-issues/active", reply(200, `[]`))
	h := newHarness(t, mux, "3\n11\n")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("issues", "issue"))

	out := h.out.String()
	assert.Contains(t, out, "Available Books")
	assert.Less(t, strings.Index(out, "Frank Herbert"), strings.Index(out, "Book ID:"))
	req, ok := h.find("POST", "/api/library-issues/issue")
	require.True(t, ok)
	assert.Contains(t, req.body, `"bookId":3`)
}

func TestIssuesIssueDefaultsDueDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/library-issues/issue", reply(201, `{"id":1}`))
	mux.HandleFunc("GET /api/books/available", reply(200, `[]`))
	mux.HandleFunc("GET /api/library-issues/active", reply(200, `[]`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("issues", "issue", "--book", "3", "--user", "11"))

	req, ok := h.find("POST", "/api/library-issues/issue")
	require.True(t, ok)
	today := time.Now()
	want := `{"bookId":3,"userId":11,"issueDate":"` + today.Format("2006-01-02") +
		`","dueDate":"` + today.Add(pages.DefaultLoanPeriod).Format("2006-01-02") + `"}`
	assert.JSONEq(t, want, req.body)
	assert.Contains(t, h.out.String(), "Book issued successfully!")
}

func TestPasswordResetWithoutToken(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "")

	err := h.run("password", "reset")
	assert.ErrorIs(t, err, pages.ErrInvalidResetLink)
	assert.Contains(t, h.out.String(), "Invalid Reset Link")
	assert.Empty(t, h.requests())
}

func TestPasswordResetRedirectsToLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/password/reset/confirm", reply(200, `{"success":true,"message":"ok"}`))
	h := newHarness(t, mux, "newsecret1\nnewsecret1\n")

	require.NoError(t, h.run("password", "reset", "--token", "abc"))

	req, ok := h.find("POST", "/api/password/reset/confirm")
	require.True(t, ok)
	assert.JSONEq(t, `{"token":"abc","newPassword":"newsecret1","confirmPassword":"newsecret1"}`, req.body)
	assert.Contains(t, h.out.String(), "Your password has been reset successfully")
}

func TestPasswordChangeSignsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/password/change", reply(200, `{"success":true}`))
	mux.HandleFunc("POST /api/auth/logout", reply(200, `{}`))
	h := newHarness(t, mux, "oldsecret\nnewsecret1\nnewsecret1\n")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("password", "change"))

	out := h.out.String()
	assert.Contains(t, out, "Password Changed!")
	assert.Contains(t, out, "Redirecting to login")
	assert.Less(t, strings.Index(out, "Password Changed!"), strings.Index(out, "Redirecting to login"))
	_, ok, err := h.store.Get(session.KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForgotPasswordAlwaysSucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/password/reset/request", reply(500, `{"message":"mailer down"}`))
	h := newHarness(t, mux, "")

	require.NoError(t, h.run("password", "forgot", "--email", "someone@sms.edu.in"))
	assert.Contains(t, h.out.String(), "If an account exists for someone@sms.edu.in")
}

func TestRegisterGeneratesSchoolEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", reply(200, `{"message":"created"}`))
	h := newHarness(t, mux, "secret123\nsecret123\n")

	require.NoError(t, h.run("register", "--first-name", "Ada", "--last-name", "Byron", "--role", "student", "--id", "2024"))

	req, ok := h.find("POST", "/api/auth/register")
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"ada.byron.2024@sms.edu.in","password":"secret123","firstName":"Ada","lastName":"Byron","role":"STUDENT","additionalId":"2024"}`, req.body)
	assert.Contains(t, h.out.String(), "Your school email will be ada.byron.2024@sms.edu.in")
	assert.Contains(t, h.out.String(), "Registration successful. Please login.")
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/logout", reply(500, `{}`))
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	require.NoError(t, h.run("logout"))
	assert.Contains(t, h.out.String(), "Signed out")
	_, ok, err := h.store.Get(session.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWhoami(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "")
	require.NoError(t, h.run("whoami"))
	assert.Contains(t, h.out.String(), "Not signed in")

	h2 := newHarness(t, http.NewServeMux(), "")
	h2.signIn(session.RoleLibrarian)
	require.NoError(t, h2.run("whoami"))
	assert.Contains(t, h2.out.String(), "Ada Byron")
	assert.Contains(t, h2.out.String(), "Librarian")
}

func TestProfileUpload(t *testing.T) {
	var field, contentType string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/librarian/dashboard/profile", reply(200, `{"firstName":"Ada","lastName":"Byron","profileImageUrl":"/img/7.png"}`))
	mux.HandleFunc("POST /api/profile/image", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for name, files := range r.MultipartForm.File {
				field, contentType = name, files[0].Header.Get("Content-Type")
			}
		}
		writeJSON(w, 200, `{}`)
	})
	h := newHarness(t, mux, "")
	h.signIn(session.RoleLibrarian)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	path := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(path, img.Bytes(), 0o600))

	require.NoError(t, h.run("profile", "upload", path))
	assert.Equal(t, "image", field)
	assert.Equal(t, "image/png", contentType)
	assert.Contains(t, h.out.String(), "Profile image uploaded successfully!")
}

func TestProfileUploadRejectsText(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "")
	h.signIn(session.RoleLibrarian)
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))

	err := h.run("profile", "upload", notes)
	assert.ErrorIs(t, err, errShown)
	assert.Contains(t, h.out.String(), "Please select an image file")
	_, uploaded := h.find("POST", "/api/profile/image")
	assert.False(t, uploaded)
}

func TestShellRunsCommandsUntilExit(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "whoami\nbogus\n\nexit\nwhoami\n")

	require.NoError(t, h.run("shell"))

	out := h.out.String()
	assert.Contains(t, out, "Welcome to the SMS Portal library desk!")
	assert.Contains(t, out, "Not signed in")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "Goodbye!")
	assert.Equal(t, 1, strings.Count(out, "Not signed in"))
}

func TestShellEndsOnEOF(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), "whoami\n")
	require.NoError(t, h.run("shell"))
	assert.NotContains(t, h.out.String(), "Goodbye!")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"books list", []string{"books", "list"}},
		{`books search "lord of the rings"`, []string{"books", "search", "lord of the rings"}},
		{`books search 'don''t'`, []string{"books", "search", "dont"}},
		{`books search don\'t`, []string{"books", "search", "don't"}},
		{"  issues   user\t12 ", []string{"issues", "user", "12"}},
		{`books search ""`, []string{"books", "search", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitArgs(`books search "dune`)
	assert.Error(t, err)
	_, err = splitArgs(`books search dune\`)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 42 ", "book")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad, "book")
		assert.Error(t, err, bad)
	}
}
