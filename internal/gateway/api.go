package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nhle/webmail/internal/model"
)

// Field-level messages for rejected auth submissions.
const (
	msgBadCredentials = "Either one or both the password and the username are wrong"
	msgUsernameTaken  = "The username you tried to register with is already taken"
)

// ValidateSession returns the user bound to the current session. A 401
// yields ErrUnauthenticated.
func (c *Client) ValidateSession(ctx context.Context) (*model.User, error) {
	var user model.User
	err := c.get(ctx, c.routes.Auth, nil, &user)
	if err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return &user, nil
}

// Login opens a session for the given credentials.
func (c *Client) Login(ctx context.Context, creds model.Credentials) error {
	if err := c.post(ctx, c.routes.Auth+"/login", creds, nil); err != nil {
		return authConflict(err)
	}
	c.persistSession()
	return nil
}

// Register creates an account; the backend logs the new user in.
func (c *Client) Register(ctx context.Context, creds model.Credentials) error {
	if err := c.post(ctx, c.routes.Auth+"/register", creds, nil); err != nil {
		return authConflict(err)
	}
	c.persistSession()
	return nil
}

// authConflict maps credential rejections onto the username field.
func authConflict(err error) error {
	switch status := statusOf(err); status {
	case http.StatusUnauthorized:
		return &ConflictError{Field: "username", Status: status, Message: msgBadCredentials}
	case http.StatusForbidden:
		return &ConflictError{Field: "username", Status: status, Message: msgUsernameTaken}
	default:
		return err
	}
}

// Logout ends the session on the backend. Persisted cookies are dropped
// before the request goes out, so a login made while it is in flight
// keeps its session.
func (c *Client) Logout(ctx context.Context) error {
	c.forgetSession()
	return c.post(ctx, c.routes.Auth+"/logout", nil, nil)
}

// FetchMessages returns the inbox and outbox of the current user.
func (c *Client) FetchMessages(ctx context.Context) (*model.Mailbox, error) {
	var box model.Mailbox
	if err := c.get(ctx, c.routes.Resources+"/messages", nil, &box); err != nil {
		return nil, err
	}
	if box.Inbox == nil {
		box.Inbox = []model.Message{}
	}
	if box.Outbox == nil {
		box.Outbox = []model.Message{}
	}
	return &box, nil
}

// SendMessage submits a new message and returns it as stored.
func (c *Client) SendMessage(ctx context.Context, req model.ComposeRequest) (*model.Message, error) {
	var msg model.Message
	if err := c.post(ctx, c.routes.Resources+"/messages", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message from one of the user's listings.
func (c *Client) DeleteMessage(ctx context.Context, id int64, listing model.ListingType) error {
	if !listing.Valid() {
		return fmt.Errorf("deleting message %d: unknown listing %q", id, listing)
	}
	path := fmt.Sprintf("%s/messages/%d", c.routes.Resources, id)
	return c.remove(ctx, path, url.Values{"listing_type": {string(listing)}})
}

// SearchUsers returns users whose name contains query. Calls are
// throttled when a search rate is configured.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("searching users: empty query")
	}

	if c.search != nil {
		if err := c.search.Wait(ctx); err != nil {
			return nil, fmt.Errorf("searching users: %w", err)
		}
	}

	var users []model.User
	err := c.get(ctx, c.routes.Resources+"/users", url.Values{"q": {query}}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}
