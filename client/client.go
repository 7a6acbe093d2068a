// Package client is the API client for the jot server. It keeps the same
// shape as the original browser client: the bearer token and user profile
// live in durable local storage, and every mutation discards the cached
// note list and refetches it instead of patching local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jotlabs/jot-server/domain"
	"github.com/jotlabs/jot-server/notes"
)

var (
	// ErrSessionExpired means the server rejected the token; the caller
	// has to log in again. Tokens are not refreshed.
	ErrSessionExpired = errors.New("session expired, log in again")

	ErrNotLoggedIn = errors.New("not logged in")
	ErrNotFound    = errors.New("note not found")
)

// APIError is any other failure response, carrying the server's messages.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, strings.Join(e.Messages, ", "))
}

type envelope struct {
	StatusCode    int             `json:"statusCode"`
	IsSuccess     bool            `json:"isSuccess"`
	Result        json.RawMessage `json:"result"`
	ErrorMessages []string        `json:"errorMessages"`
}

type Client struct {
	baseURL     string
	http        *http.Client
	sessionPath string
	session     *Session

	showArchived bool
	notesCache   []domain.Note
	pagination   domain.Pagination
}

// New restores any stored session from the user config dir.
func New(baseURL string) (*Client, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	return newWithSessionPath(baseURL, path)
}

func newWithSessionPath(baseURL, path string) (*Client, error) {
	session, err := loadSession(path)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		http:        &http.Client{},
		sessionPath: path,
		session:     session,
	}, nil
}

// User returns the profile from the stored session, or nil when logged out.
func (c *Client) User() *domain.User {
	if c.session == nil {
		return nil
	}
	return c.session.User
}

// Notes returns the cached list from the last fetch.
func (c *Client) Notes() []domain.Note {
	return c.notesCache
}

func (c *Client) Pagination() domain.Pagination {
	return c.pagination
}

// Login authenticates and persists the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/users/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil && len(env.ErrorMessages) > 0 {
			return &APIError{StatusCode: resp.StatusCode, Messages: env.ErrorMessages}
		}
		return &APIError{StatusCode: resp.StatusCode, Messages: []string{"login failed"}}
	}

	var result struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	c.session = &Session{Token: result.Token, User: result.User}
	return saveSession(c.sessionPath, c.session)
}

// Logout clears the stored session and the note cache.
func (c *Client) Logout() error {
	c.session = nil
	c.notesCache = nil
	return clearSession(c.sessionPath)
}

// SetShowArchived flips the archived filter and refetches, mirroring the
// browser client's toggle.
func (c *Client) SetShowArchived(ctx context.Context, archived bool) error {
	c.showArchived = archived
	return c.Refresh(ctx)
}

// Refresh replaces the cached list with a fresh fetch.
func (c *Client) Refresh(ctx context.Context) error {
	q := url.Values{}
	q.Set("archived", strconv.FormatBool(c.showArchived))

	env, header, err := c.do(ctx, http.MethodGet, "/api/notes?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	var list []domain.Note
	if err := json.Unmarshal(env.Result, &list); err != nil {
		return err
	}
	c.notesCache = list

	if raw := header.Get("X-Pagination"); raw != "" {
		var p domain.Pagination
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			c.pagination = p
		}
	}
	return nil
}

func (c *Client) Get(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	env, _, err := c.do(ctx, http.MethodGet, "/api/notes/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	var n domain.Note
	if err := json.Unmarshal(env.Result, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) Create(ctx context.Context, in notes.CreateInput) (*domain.Note, error) {
	return c.mutate(ctx, http.MethodPost, "/api/notes", in)
}

func (c *Client) Update(ctx context.Context, in notes.UpdateInput) (*domain.Note, error) {
	return c.mutate(ctx, http.MethodPut, "/api/notes/"+in.ID.String(), in)
}

func (c *Client) Patch(ctx context.Context, id uuid.UUID, ops []domain.PatchOp) (*domain.Note, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/notes/"+id.String(), ops)
}

func (c *Client) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*domain.Note, error) {
	return c.mutate(ctx, http.MethodPatch, "/api/notes/"+id.String()+"/archive", archived)
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/api/notes/"+id.String(), nil)
	if err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// mutate performs a write, then refetches the full list.
func (c *Client) mutate(ctx context.Context, method, path string, body any) (*domain.Note, error) {
	env, _, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var n domain.Note
	if err := json.Unmarshal(env.Result, &n); err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, http.Header, error) {
	if c.session == nil {
		return nil, nil, ErrNotLoggedIn
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return &envelope{StatusCode: resp.StatusCode, IsSuccess: true}, resp.Header, nil
	case http.StatusUnauthorized:
		return nil, nil, ErrSessionExpired
	case http.StatusNotFound:
		return nil, nil, ErrNotFound
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, nil, err
	}
	if !env.IsSuccess {
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Messages: env.ErrorMessages}
	}
	return &env, resp.Header, nil
}
