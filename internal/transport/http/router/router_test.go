package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository/memory"
	"github.com/vedran77/glamplanner/internal/service"
	"github.com/vedran77/glamplanner/internal/transport/http/middleware"
)

type testServer struct {
	handler chi.Router
	auth    *service.AuthService
}

func newTestServer(t *testing.T, ping func(context.Context) error) *testServer {
	t.Helper()
	store := memory.NewStore()
	if ping == nil {
		ping = store.Ping
	}
	auth := service.NewAuthService(store.Users, service.AuthConfig{
		Secret:           "router-test",
		TokenTTL:         time.Hour,
		AllowAdminSignup: true,
	})
	return &testServer{
		auth: auth,
		handler: New(Deps{
			Logger:      zerolog.Nop(),
			Auth:        auth,
			Plans:       service.NewPlanService(store.Plans, store.Users),
			Gallery:     service.NewGalleryService(store.Gallery),
			Events:      service.NewEventService(store.Events),
			Media:       service.NewMediaService(nil, "gallery"),
			Ping:        ping,
			Limiter:     middleware.NewLocalLimiter(1000, time.Minute),
			CORSOrigins: []string{"http://localhost:5173"},
		}),
	}
}

type account struct {
	ID    string
	Token string
}

func (s *testServer) register(t *testing.T, username, role string) account {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "Secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User        struct{ ID string } `json:"user"`
		AccessToken string              `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return account{ID: resp.User.ID, Token: resp.AccessToken}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, rec)
	return body.Error.Code
}

func TestPlanFlow(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register(t, "ana", "user")
	admin := s.register(t, "mia", "admin")
	otherAdmin := s.register(t, "lea", "admin")

	rec := s.do(t, http.MethodPost, "/api/plans", user.Token, map[string]string{
		"responder_id": admin.ID,
		"message":      "Need a quote",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	thread := decode[domain.PlanThread](t, rec)
	assert.Empty(t, thread.Replies)
	base := "/api/plans/" + thread.ID.String()

	rec = s.do(t, http.MethodPost, base+"/replies", admin.Token, map[string]any{
		"message":    "Here's the price list",
		"image_urls": []any{"http://x/1.png", "", 7},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	thread = decode[domain.PlanThread](t, rec)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, []string{"http://x/1.png"}, thread.Replies[0].ImageURLs)

	rec = s.do(t, http.MethodPost, base+"/replies", otherAdmin.Token, map[string]any{"message": "me too"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, base+"/replies", user.Token, map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/hide", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/plans/user", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.PlanThread](t, rec))

	rec = s.do(t, http.MethodGet, "/api/plans/admin", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.PlanThread](t, rec), 1)

	replyPath := base + "/replies/" + thread.Replies[0].ID.String()
	rec = s.do(t, http.MethodPost, replyPath+"/hide", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.PlanThread](t, rec).Replies)

	rec = s.do(t, http.MethodDelete, replyPath, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, base, user.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, base, admin.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/hide", user.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlanReplyRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register(t, "ana", "user")
	admin := s.register(t, "mia", "admin")
	otherUser := s.register(t, "iva", "user")

	rec := s.do(t, http.MethodPost, "/api/plans", user.Token, map[string]string{
		"responder_id": admin.ID,
		"message":      "Need a quote",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	base := "/api/plans/" + decode[domain.PlanThread](t, rec).ID.String()

	var thread domain.PlanThread
	for _, msg := range []string{"first", "second", "third"} {
		rec = s.do(t, http.MethodPost, base+"/replies", admin.Token, map[string]string{"message": msg})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		thread = decode[domain.PlanThread](t, rec)
	}
	require.Len(t, thread.Replies, 3)
	first, second, third := thread.Replies[0].ID, thread.Replies[1].ID, thread.Replies[2].ID
	replyPath := func(id fmt.Stringer) string { return base + "/replies/" + id.String() }

	// The requester only hides the reply from their own view.
	rec = s.do(t, http.MethodPost, replyPath(first)+"/hide", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	thread = decode[domain.PlanThread](t, rec)
	require.Len(t, thread.Replies, 3)
	assert.True(t, thread.Replies[0].HiddenBy.Has(uuidOf(t, user.ID)))

	rec = s.do(t, http.MethodGet, "/api/plans/user", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]domain.PlanThread](t, rec)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].Replies, 2)
	assert.Equal(t, second, mine[0].Replies[0].ID)

	rec = s.do(t, http.MethodGet, "/api/plans/admin", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.PlanThread](t, rec)[0].Replies, 3, "responder still sees it")

	// The responder hiding a reply removes it for both sides.
	rec = s.do(t, http.MethodPost, replyPath(second)+"/hide", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	thread = decode[domain.PlanThread](t, rec)
	require.Len(t, thread.Replies, 2)
	assert.Equal(t, first, thread.Replies[0].ID)
	assert.Equal(t, third, thread.Replies[1].ID)

	rec = s.do(t, http.MethodPost, replyPath(third)+"/hide", otherUser.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = s.do(t, http.MethodDelete, replyPath(third), otherUser.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The requester may delete a reply outright.
	rec = s.do(t, http.MethodDelete, replyPath(third), user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	thread = decode[domain.PlanThread](t, rec)
	require.Len(t, thread.Replies, 1)
	assert.Equal(t, first, thread.Replies[0].ID)

	// So may the admin who wrote it.
	rec = s.do(t, http.MethodDelete, replyPath(first), admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[domain.PlanThread](t, rec).Replies)

	rec = s.do(t, http.MethodDelete, replyPath(first), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, base+"/replies/nope/hide", user.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))
}

func uuidOf(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func TestPlanErrors(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register(t, "ana", "user")
	other := s.register(t, "iva", "user")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/api/plans/user", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"user listing admin inbox", http.MethodGet, "/api/plans/admin", user.Token, nil, http.StatusForbidden, "FORBIDDEN"},
		{"responder is not admin", http.MethodPost, "/api/plans", user.Token, map[string]string{"responder_id": other.ID, "message": "hi"}, http.StatusBadRequest, "INVALID_RESPONDER"},
		{"blank message", http.MethodPost, "/api/plans", user.Token, map[string]string{"responder_id": other.ID, "message": " "}, http.StatusBadRequest, "INVALID_INPUT"},
		{"message too long", http.MethodPost, "/api/plans", user.Token, map[string]string{"responder_id": other.ID, "message": strings.Repeat("a", service.MaxMessageLength+1)}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad id", http.MethodPost, "/api/plans/nope/hide", user.Token, nil, http.StatusBadRequest, "INVALID_ID"},
		{"unknown plan", http.MethodPost, "/api/plans/7d0a2b36-1111-4e5b-9a3c-3f5c1d2e4b6a/hide", user.Token, nil, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.register(t, "mia", "admin")
	s.register(t, "ana", "")

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "mia@example.com", "username": "mia2", "password": "Secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "mia", "password": "Secret123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"login": "mia", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/auth/me", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[domain.User](t, rec)
	assert.Equal(t, domain.RoleAdmin, me.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodGet, "/api/auth/admins", admin.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	admins := decode[[]domain.AdminSummary](t, rec)
	require.Len(t, admins, 1)
	assert.Equal(t, "mia", admins[0].Username)
}

func TestGalleryAndEvents(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register(t, "ana", "user")
	admin := s.register(t, "mia", "admin")

	rec := s.do(t, http.MethodPost, "/api/gallery", user.Token, map[string]string{"url": "http://img/1.png"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	img := decode[domain.GalleryImage](t, rec)
	assert.Equal(t, "Bez opisa.", img.Desc)

	rec = s.do(t, http.MethodGet, "/api/gallery", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.GalleryImage](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/gallery/"+img.ID.String(), user.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/gallery/"+img.ID.String(), admin.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/events", user.Token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/events", admin.Token, map[string]any{
		"title":       "Masterclass",
		"description": "Bridal makeup",
		"image_url":   "http://img/cover.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decode[domain.Event](t, rec)

	rec = s.do(t, http.MethodPut, "/api/events/"+event.ID.String(), admin.Token, map[string]any{
		"new_content_images": []string{"http://img/a.png"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"http://img/a.png"}, decode[domain.Event](t, rec).ContentImageURLs)

	rec = s.do(t, http.MethodDelete, "/api/events/"+event.ID.String()+"/images", admin.Token, map[string]string{"image_url": "http://img/a.png"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.Event](t, rec).ContentImageURLs)

	rec = s.do(t, http.MethodGet, "/api/events/"+event.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/events/"+event.ID.String(), admin.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/events/"+event.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register(t, "ana", "user")

	rec := s.do(t, http.MethodPost, "/api/upload-by-url", user.Token, map[string]string{"image_url": "http://x/a.png"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "MEDIA_DISABLED", errorCode(t, rec))

	rec = s.do(t, http.MethodDelete, "/api/image/gallery/a-123", user.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestServer(t, func(context.Context) error { return errors.New("connection refused") })
	rec = down.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/api/health", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `glamplanner_http_requests_total{method="GET",path="/api/health",status="200"}`)
}
