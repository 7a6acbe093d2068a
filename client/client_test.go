package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jotlabs/jot-server/domain"
	"github.com/jotlabs/jot-server/notes"
)

// stubServer fakes just enough of the API for the client: one user, an
// in-memory note list, envelope responses and the X-Pagination header.
type stubServer struct {
	t         *testing.T
	notes     []domain.Note
	listCalls atomic.Int32
	lastQuery string
	reject401 bool
}

func (s *stubServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username, Password string }
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, envelope{StatusCode: 401, ErrorMessages: []string{"Incorrect Password"}})
			return
		}
		writeJSON(w, map[string]any{
			"token": "stub-token",
			"user":  &domain.User{ID: uuid.New(), Username: req.Username},
		})
	})

	mux.HandleFunc("GET /api/notes", func(w http.ResponseWriter, r *http.Request) {
		if s.unauthorized(w, r) {
			return
		}
		s.listCalls.Add(1)
		s.lastQuery = r.URL.RawQuery

		pagination, err := json.Marshal(domain.Pagination{
			PageNumber: 1, PageSize: 10, TotalCount: len(s.notes),
		})
		require.NoError(s.t, err)
		w.Header().Set("X-Pagination", string(pagination))

		result, err := json.Marshal(s.notes)
		require.NoError(s.t, err)
		writeJSON(w, envelope{StatusCode: 200, IsSuccess: true, Result: result})
	})

	mux.HandleFunc("POST /api/notes", func(w http.ResponseWriter, r *http.Request) {
		if s.unauthorized(w, r) {
			return
		}
		var in notes.CreateInput
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&in))

		now := time.Now().UTC()
		n := domain.Note{
			ID: uuid.New(), Title: in.Title, Content: in.Content,
			Tags: in.Tags, CreatedAt: now, UpdatedAt: now,
		}
		s.notes = append(s.notes, n)

		result, err := json.Marshal(n)
		require.NoError(s.t, err)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, envelope{StatusCode: 201, IsSuccess: true, Result: result})
	})

	mux.HandleFunc("DELETE /api/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		if s.unauthorized(w, r) {
			return
		}
		s.notes = nil
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func (s *stubServer) unauthorized(w http.ResponseWriter, r *http.Request) bool {
	if s.reject401 || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *stubServer) {
	t.Helper()
	stub := &stubServer{t: t}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "session.json")
	c, err := newWithSessionPath(srv.URL, path)
	require.NoError(t, err)
	return c, stub
}

func TestLoginPersistsSession(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "admin", "123456"))

	assert.Equal(t, "admin", c.User().Username)

	data, err := os.ReadFile(c.sessionPath)
	require.NoError(t, err)
	var s Session
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "stub-token", s.Token)

	// A fresh client restores the stored session.
	restored, err := newWithSessionPath(c.baseURL, c.sessionPath)
	require.NoError(t, err)
	require.NotNil(t, restored.User())
	assert.Equal(t, "admin", restored.User().Username)
}

func TestLoginFailureSurfacesMessage(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Login(context.Background(), "admin", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Messages, "Incorrect Password")
	assert.Nil(t, c.User())
}

func TestCallsRequireLogin(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Refresh(context.Background())

	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestRefreshPopulatesCacheAndPagination(t *testing.T) {
	c, stub := newTestClient(t)
	ctx := context.Background()
	stub.notes = []domain.Note{{ID: uuid.New(), Title: "hello"}}

	require.NoError(t, c.Login(ctx, "admin", "123456"))
	require.NoError(t, c.Refresh(ctx))

	require.Len(t, c.Notes(), 1)
	assert.Equal(t, "hello", c.Notes()[0].Title)
	assert.Equal(t, 1, c.Pagination().TotalCount)
}

func TestMutationRefetchesList(t *testing.T) {
	c, stub := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "admin", "123456"))

	n, err := c.Create(ctx, notes.CreateInput{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", n.Title)

	// Create does not patch local state; it refetched the list.
	assert.Equal(t, int32(1), stub.listCalls.Load())
	require.Len(t, c.Notes(), 1)

	require.NoError(t, c.Delete(ctx, n.ID))
	assert.Equal(t, int32(2), stub.listCalls.Load())
	assert.Empty(t, c.Notes())
}

func TestShowArchivedToggleRefetches(t *testing.T) {
	c, stub := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "admin", "123456"))
	require.NoError(t, c.SetShowArchived(ctx, true))

	assert.Contains(t, stub.lastQuery, "archived=true")
}

func TestExpiredSessionSurfaces(t *testing.T) {
	c, stub := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "admin", "123456"))
	stub.reject401 = true

	err := c.Refresh(ctx)

	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogoutClearsSession(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "admin", "123456"))
	require.NoError(t, c.Logout())

	assert.Nil(t, c.User())
	_, err := os.Stat(c.sessionPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Logging out twice is fine.
	require.NoError(t, c.Logout())
}
