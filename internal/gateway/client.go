package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of a failed response is kept for the
// error message.
const maxErrorBody = 4 << 10

// SessionStore persists the backend session cookies between runs.
type SessionStore interface {
	Load(baseURL string) ([]*http.Cookie, error)
	Save(baseURL string, cookies []*http.Cookie) error
	Clear(baseURL string) error
}

// Routes holds the path prefixes of the backend API.
type Routes struct {
	Auth      string
	Resources string
}

// DefaultRoutes matches the stock backend deployment.
var DefaultRoutes = Routes{
	Auth:      "/api/auth",
	Resources: "/api/resources",
}

// Client is a thin HTTP client for the mail backend. The session lives
// in a cookie jar, exactly as it would in a browser.
type Client struct {
	baseURL    *url.URL
	routes     Routes
	httpClient *http.Client
	sessions   SessionStore
	search     *rate.Limiter
	log        *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithRoutes overrides the API path prefixes.
func WithRoutes(r Routes) Option {
	return func(c *Client) {
		if r.Auth != "" {
			c.routes.Auth = strings.TrimRight(r.Auth, "/")
		}
		if r.Resources != "" {
			c.routes.Resources = strings.TrimRight(r.Resources, "/")
		}
	}
}

// WithSessionStore persists session cookies after login and restores
// them on RestoreSession.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) {
		c.sessions = s
	}
}

// WithSearchRate throttles SearchUsers to perSec requests per second.
// Zero or negative disables throttling.
func WithSearchRate(perSec float64) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.search = nil
			return
		}
		c.search = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) {
		c.log = l.WithField("component", "gateway")
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: u,
		routes:  DefaultRoutes,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: discard.WithField("component", "gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// RestoreSession loads persisted cookies into the jar. It is a no-op
// without a session store.
func (c *Client) RestoreSession() error {
	if c.sessions == nil {
		return nil
	}

	cookies, err := c.sessions.Load(c.BaseURL())
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}
	if len(cookies) > 0 {
		c.httpClient.Jar.SetCookies(c.baseURL, cookies)
	}
	return nil
}

// persistSession writes the current jar contents to the session store.
func (c *Client) persistSession() {
	if c.sessions == nil {
		return
	}
	cookies := c.httpClient.Jar.Cookies(c.baseURL)
	if err := c.sessions.Save(c.BaseURL(), cookies); err != nil {
		c.log.WithError(err).Warn("saving session cookies")
	}
}

// forgetSession drops persisted cookies.
func (c *Client) forgetSession() {
	if c.sessions == nil {
		return
	}
	if err := c.sessions.Clear(c.BaseURL()); err != nil {
		c.log.WithError(err).Warn("clearing session cookies")
	}
}

// get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// remove performs an HTTP DELETE request.
func (c *Client) remove(ctx context.Context, path string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

// do builds the request, sends it with the session cookies, and decodes
// the response. Every failure is returned as a *TransportError so callers
// can map statuses to their own meaning.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body interface{},
	result interface{},
) error {
	target := c.baseURL.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	log = log.WithField("status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("unexpected status")
		return &TransportError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
		}
	}
	log.Debug("request ok")

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("reading response body: %w", err),
		}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &TransportError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unmarshaling response: %w", err),
		}
	}

	return nil
}

// errorMessage extracts a readable reason from an error body. The
// backend answers aborts with {"message": "..."}; anything else is
// ignored rather than dumping HTML into the UI.
func errorMessage(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(raw, "message").String())
}
