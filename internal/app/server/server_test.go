package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/linkdropapp/linkdrop/internal/app/handler"
	"github.com/linkdropapp/linkdrop/internal/app/service"
	"github.com/linkdropapp/linkdrop/internal/models"
	"github.com/linkdropapp/linkdrop/internal/notify"
	"github.com/linkdropapp/linkdrop/internal/objectstore"
	"github.com/linkdropapp/linkdrop/internal/storage"
)

func newTestServer(t *testing.T) (*chi.Mux, *storage.MemoryStorage, *service.Auth) {
	t.Helper()

	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	objects, err := objectstore.New(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	logger := zap.NewNop()
	clicks := make(chan storage.ClickEvent, 16)

	auth := service.NewAuth("testsecret")
	profiles := service.NewProfile(store, logger)
	links := service.NewLinks(store, clicks, logger)
	drops := service.NewDrops(store, objects, logger)
	mfa := service.NewMFA(store, "linkdrop.local", logger)
	sessions := service.NewSessions(store, auth, logger)
	billing := service.NewBilling("", "", "http://localhost/dashboard", store, logger)
	mailer := notify.NewMailer("", "", logger)
	deleter := service.NewDeletion(store, mfa, mailer, true, logger)

	h := Handlers{
		Get:     handler.NewGet(profiles, links, drops, store, store, objects, logger),
		Post:    handler.NewPost(profiles, links, drops, mfa, sessions, billing, logger),
		Delete:  handler.NewDelete(links, drops, logger),
		Account: handler.NewAccount(auth, deleter, logger),
		Auth:    handler.NewAuthHandler(&oauth2.Config{}, "", sessions, false, logger),
	}

	return Init(logger, auth, "10.0.0.0/24", h), store, auth
}

func TestRoutingBasics(t *testing.T) {
	r, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"ping", http.MethodGet, "/ping", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope/nothing", http.StatusNotFound},
		{"delete preflight", http.MethodOptions, "/api/account/delete", http.StatusNoContent},
		{"delete wrong method", http.MethodGet, "/api/account/delete", http.StatusMethodNotAllowed},
		{"dashboard without token", http.MethodGet, "/api/links", http.StatusUnauthorized},
		{"stats outside subnet", http.MethodGet, "/api/internal/stats", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDeletePreflightHeaders(t *testing.T) {
	r, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/account/delete", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestStatsInsideTrustedSubnet(t *testing.T) {
	r, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/internal/stats", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Profiles)
}

func TestUsernameCheckEndpoint(t *testing.T) {
	r, store, _ := newTestServer(t)

	_, err := store.CreateUser(context.Background(), storage.User{ID: "user-1", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = store.CreateProfile(context.Background(), storage.Profile{UserID: "user-1", Slug: "taken"})
	require.NoError(t, err)

	tests := []struct {
		name          string
		query         string
		wantAvailable *bool
		wantErr       string
	}{
		{"free", "username=free-name", ptr(true), ""},
		{"taken", "username=taken", ptr(false), ""},
		{"too short", "username=ab", ptr(false), "Username must be at least 3 characters"},
		{"empty is neutral", "username=", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/username-check?"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body models.AvailabilityResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantAvailable == nil {
				assert.Nil(t, body.Available)
			} else {
				require.NotNil(t, body.Available)
				assert.Equal(t, *tt.wantAvailable, *body.Available)
			}
			assert.Equal(t, tt.wantErr, body.Error)
		})
	}
}

// TestDashboardFlow walks the authenticated surface end to end: create a
// profile, add links, reorder them and read the public page back.
func TestDashboardFlow(t *testing.T) {
	r, store, auth := newTestServer(t)

	_, err := store.CreateUser(context.Background(), storage.User{ID: "user-1", Email: "ada@example.com", Plan: "free"})
	require.NoError(t, err)

	token, err := auth.BuildJWTString("user-1", "aal1")
	require.NoError(t, err)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer "+token)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/profile", `{"slug":"Ada ","display_name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Slug was normalized on the way in.
	var profile storage.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "ada", profile.Slug)

	for _, title := range []string{"Blog", "Shop", "Contact"} {
		rec = do(http.MethodPost, "/api/links", `{"title":"`+title+`","url":"https://example.com"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(http.MethodPut, "/api/links/order", `{"from":0,"to":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var links []storage.Link
	rec = do(http.MethodGet, "/api/links", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	require.Len(t, links, 3)
	assert.Equal(t, []string{"Shop", "Contact", "Blog"}, []string{links[0].Title, links[1].Title, links[2].Title})
	for i, l := range links {
		assert.Equal(t, i+1, l.Order)
	}

	// Public page needs no credential.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles/ada", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.PublicProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "ada", page.Profile.Slug)
	assert.Len(t, page.Links, 3)
}

func TestUnsafeLinkRejected(t *testing.T) {
	r, store, auth := newTestServer(t)

	_, err := store.CreateUser(context.Background(), storage.User{ID: "user-1", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = store.CreateProfile(context.Background(), storage.Profile{UserID: "user-1", Slug: "ada"})
	require.NoError(t, err)

	token, err := auth.BuildJWTString("user-1", "aal1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewBufferString(`{"title":"x","url":"javascript:alert(1)"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func ptr(b bool) *bool { return &b }
