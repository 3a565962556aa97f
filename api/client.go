package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	jsoniter "github.com/json-iterator/go"

	"library-portal/logging"
	"library-portal/nav"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultTimeout = 30 * time.Second

// Paths that must never carry a bearer token, so a stale token is not sent
// while signing in or recovering a password.
var skipTokenPaths = []string{
	"/api/auth/login",
	"/api/auth/logout",
	"/api/auth/register",
	"/api/password/reset",
}

// TokenStore is the session as seen by the HTTP layer.
type TokenStore interface {
	Token() string
	Clear() error
}

// Navigator is the routing layer as seen by the HTTP layer.
type Navigator interface {
	Path() string
	Navigate(path string)
}

// Client is the single outbound HTTP adapter. Every domain module goes
// through it; pages never call it directly.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	tokens  TokenStore
	nav     Navigator
	log     logr.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.HTTPClient.Timeout = timeout }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a client for the backend at baseURL. Requests are sent
// exactly once; nothing is retried.
func NewClient(baseURL string, tokens TokenStore, navigator Navigator, opts ...Option) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 0
	httpClient.Logger = nil
	httpClient.CheckRetry = func(context.Context, *http.Response, error) (bool, error) { return false, nil }
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient.HTTPClient.Timeout = DefaultTimeout

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		nav:     navigator,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, _ int) {
		c.log.V(1).Info(fmt.Sprintf("[API Request] %s %s", req.Method, req.URL.Path),
			"query", req.URL.RawQuery, "requestID", req.Header.Get("X-Request-ID"))
	}
	httpClient.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		c.log.V(1).Info(fmt.Sprintf("[API Response] %s", resp.Request.URL.Path), "status", resp.StatusCode)
	}
	return c
}

// BaseURL returns the backend root without trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, payload, "application/json", out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, query, payload, "application/json", out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", out)
}

// PostMultipart uploads content as a single file part named field.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename, contentType string, content []byte, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, buf.Bytes(), mw.FormDataContentType(), out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var rawBody any
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, rawBody)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if !skipsToken(path) {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(err, "[API Request Error]", "method", method, "url", path)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(method, path, resp.StatusCode, data)
		c.handleError(apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if s, ok := out.(*string); ok && !json.Valid(data) {
		*s = string(data)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// handleError applies the global response rules: 401 ends the session and
// sends the user to the login route, 403 is only logged.
func (c *Client) handleError(apiErr *Error) {
	c.log.Error(apiErr, "[API Response Error]",
		"status", apiErr.StatusCode, "message", apiErr.Message, "url", apiErr.Path)

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		logging.Warn(c.log, "Unauthorized - Clearing session and redirecting to login")
		if err := c.tokens.Clear(); err != nil {
			c.log.Error(err, "clear session")
		}
		if c.nav != nil && c.nav.Path() != nav.RouteLogin {
			c.nav.Navigate(nav.RouteLogin)
		}
	case http.StatusForbidden:
		logging.Warn(c.log, "Access Denied - Insufficient permissions")
	}
}

func skipsToken(path string) bool {
	for _, p := range skipTokenPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
