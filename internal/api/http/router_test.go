package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/repository/memory"
	"github.com/spec-kit/ticket-desk/internal/service"
)

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memoryRevocations) RevokeToken(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = true
	return nil
}

func (m *memoryRevocations) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

type testServer struct {
	app   *fiber.App
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	revocations := &memoryRevocations{revoked: map[string]bool{}}

	tokens, err := auth.NewTokenManager("router-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	activity := service.NewActivityService(service.ActivityDependencies{Store: store, Logger: logger})
	deps := service.TicketDependencies{
		Store:      store,
		Activity:   activity,
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
		Logger:     logger,
	}
	assignments := service.NewAssignmentService(deps)
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: 4}, service.AuthDependencies{
		Store: store, Tokens: tokens, Revoker: revocations, Logger: logger,
	})

	app := NewApp(AppOptions{Name: "ticket-desk-test", RequestTimeout: 5 * time.Second, Logger: logger, Metrics: metrics})
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("ticket-desk", "test", map[string]handlers.Pinger{"postgres": nil}),
		Users:          handlers.NewUsersHandler(authService, service.NewUserService(store, logger)),
		Tickets:        handlers.NewTicketsHandler(service.NewTicketService(deps), assignments),
		Assignments:    handlers.NewAssignmentsHandler(assignments),
		Comments:       handlers.NewCommentsHandler(service.NewCommentService(deps)),
		Activity:       handlers.NewActivityHandler(activity),
		Tags:           handlers.NewTagsHandler(service.NewTagService(store)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users(), revocations, logger),
		Metrics:        metrics,
	})
	return &testServer{app: app, store: store}
}

type session struct {
	ID    string
	Token string
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	status, raw := s.doRaw(t, method, path, token, body)
	decoded := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return status, decoded
}

func (s *testServer) doRaw(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) register(t *testing.T, name, role string) session {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "secret1",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return session{ID: user["id"].(string), Token: body["token"].(string)}
}

func TestEndToEnd_AssignRevokeAndOwnership(t *testing.T) {
	s := newTestServer(t)
	a := s.register(t, "Alice", "assignee")
	u := s.register(t, "Ursula", "user")
	b := s.register(t, "Bob", "assignee")

	status, ticket := s.do(t, http.MethodPost, "/tickets", a.Token, map[string]any{
		"title":            "VPN broken",
		"description":      "cannot connect",
		"status":           "completed",
		"assignedToUserId": u.ID,
	})
	require.Equal(t, http.StatusCreated, status, ticket)
	assert.Equal(t, "pending", ticket["status"])
	assert.Equal(t, "medium", ticket["priority"])
	assert.Equal(t, u.ID, ticket["assignedToUserId"])
	assert.Equal(t, "Ursula", ticket["assignedUser"].(map[string]any)["name"])
	assert.Equal(t, "Alice", ticket["creator"].(map[string]any)["name"])
	ticketID := ticket["id"].(string)

	status, raw := s.doRaw(t, http.MethodGet, "/assignments/ticket/"+ticketID, a.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "assigned", rows[0]["action"])

	status, revoked := s.do(t, http.MethodPut, "/tickets/"+ticketID+"/revoke", u.Token, nil)
	require.Equal(t, http.StatusOK, status, revoked)
	assert.Equal(t, "revoked", revoked["status"])
	assert.Equal(t, u.ID, revoked["assignedToUserId"])

	status, raw = s.doRaw(t, http.MethodGet, "/assignments/ticket/"+ticketID, u.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "revoked", rows[0]["action"])
	assert.Equal(t, u.ID, rows[0]["assignedByUserId"])

	status, body := s.do(t, http.MethodPut, "/tickets/"+ticketID+"/status", b.Token, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, map[string]any{"error": "you can only modify your own tickets"}, body)

	status, body = s.do(t, http.MethodPut, "/tickets/"+ticketID+"/revoke", u.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "cannot revoke ticket with status: revoked", body["error"])
}

func TestTicketRoutes(t *testing.T) {
	s := newTestServer(t)
	a := s.register(t, "Alice", "assignee")
	u := s.register(t, "Ursula", "user")
	v := s.register(t, "Victor", "user")
	admin := s.register(t, "Root", "admin")

	status, body := s.do(t, http.MethodPost, "/tickets", u.Token, map[string]any{"title": "x", "assignedToUserId": u.ID})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "access denied. required role(s): assignee, admin", body["error"])

	status, body = s.do(t, http.MethodPost, "/tickets", a.Token, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "assignedToUserId is required", body["error"])

	status, ticket := s.do(t, http.MethodPost, "/tickets", a.Token, map[string]any{"title": "Laptop", "priority": "high", "assignedToUserId": u.ID})
	require.Equal(t, http.StatusCreated, status)
	id := ticket["id"].(string)

	status, body = s.do(t, http.MethodPut, "/tickets/"+id+"/status", a.Token, map[string]any{"status": "valid"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid status. must be one of: pending, approved, rejected, completed", body["error"])

	status, body = s.do(t, http.MethodPut, "/tickets/"+id+"/status", a.Token, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "approved", body["status"])

	status, body = s.do(t, http.MethodPut, "/tickets/"+id+"/assign", a.Token, map[string]any{"assignedToUserId": v.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, v.ID, body["assignedToUserId"])

	status, _ = s.do(t, http.MethodGet, "/tickets/"+id, u.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodGet, "/tickets?limit=5", v.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["pages"])
	assert.EqualValues(t, 1, body["page"])

	status, body = s.do(t, http.MethodGet, "/tickets?q=laptop", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, tag := s.do(t, http.MethodPost, "/tags", admin.Token, map[string]any{"name": "hardware"})
	require.Equal(t, http.StatusCreated, status)
	status, body = s.do(t, http.MethodPut, "/tickets/"+id+"/tags", a.Token, map[string]any{"tagIds": []string{tag["id"].(string)}})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["tags"], 1)

	status, body = s.do(t, http.MethodPut, "/tickets/"+id+"/withdraw", a.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "revoked", body["status"])
	assert.Nil(t, body["assignedToUserId"])

	status, raw := s.doRaw(t, http.MethodGet, "/activity/"+id, admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var activity []map[string]any
	require.NoError(t, json.Unmarshal(raw, &activity))
	assert.Equal(t, "withdrawn", activity[0]["action"])

	status, body = s.do(t, http.MethodDelete, "/tickets/"+id, a.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ticket deleted successfully", body["message"])
	status, _ = s.do(t, http.MethodGet, "/tickets/"+id, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCommentAndAssignmentRoutes(t *testing.T) {
	s := newTestServer(t)
	a := s.register(t, "Alice", "assignee")
	u := s.register(t, "Ursula", "user")
	admin := s.register(t, "Root", "admin")

	_, ticket := s.do(t, http.MethodPost, "/tickets", a.Token, map[string]any{"title": "Printer", "assignedToUserId": u.ID})
	id := ticket["id"].(string)

	status, comment := s.do(t, http.MethodPost, "/comments", u.Token, map[string]any{"ticketId": id, "body": "jammed again"})
	require.Equal(t, http.StatusCreated, status, comment)
	assert.Equal(t, "Ursula", comment["author"].(map[string]any)["name"])

	status, body := s.do(t, http.MethodPut, "/comments/"+comment["id"].(string), a.Token, map[string]any{"body": "edited"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "you can only modify your own comments", body["error"])

	status, raw := s.doRaw(t, http.MethodGet, "/comments/"+id, a.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var thread []map[string]any
	require.NoError(t, json.Unmarshal(raw, &thread))
	assert.Len(t, thread, 1)

	status, _ = s.do(t, http.MethodGet, "/assignments", a.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodGet, "/assignments", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body = s.do(t, http.MethodGet, "/assignments/stats", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalAssignments"])
	assert.Len(t, body["topAssignees"], 1)

	status, body = s.do(t, http.MethodGet, "/assignments/user/"+u.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["assignedToUser"], 1)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "Root", "admin")
	u := s.register(t, "Ursula", "")

	status, body := s.do(t, http.MethodPost, "/auth/register", "", map[string]any{"name": "X", "email": "nope", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "name must be at least 2 characters")
	assert.Contains(t, body["error"], "email must be a valid email")

	status, body = s.do(t, http.MethodPost, "/auth/register", "", map[string]any{"name": "Ursula", "email": "ursula@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email already registered", body["error"])

	status, body = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ursula@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", body["error"])

	status, body = s.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "ursula@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])

	status, body = s.do(t, http.MethodGet, "/auth/me", u.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ursula@example.com", body["email"])
	assert.NotContains(t, body, "passwordHash")

	status, _ = s.do(t, http.MethodGet, "/auth/users", u.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodPut, "/auth/users/"+admin.ID+"/role", admin.Token, map[string]any{"role": "user"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "you cannot change your own role", body["error"])

	status, body = s.do(t, http.MethodPut, "/auth/users/"+u.ID+"/role", admin.Token, map[string]any{"role": "assignee"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "assignee", body["role"])

	// The stored role applies to the existing token immediately.
	status, _ = s.do(t, http.MethodGet, "/auth/users?role=assignee", u.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/auth/logout", u.Token, nil)
	require.Equal(t, http.StatusOK, status)
	status, body = s.do(t, http.MethodGet, "/auth/me", u.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, map[string]any{"error": "authentication required"}, body)
}

func TestUniformUnauthorized(t *testing.T) {
	s := newTestServer(t)
	for _, token := range []string{"", "garbage", "a.b.c"} {
		status, body := s.do(t, http.MethodGet, "/tickets", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status, token)
		assert.Equal(t, map[string]any{"error": "authentication required"}, body, token)
	}
}

func TestErrorShapeAndOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"error": "internal server error"}, body)

	status, body = s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "error")

	status, body = s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disabled", body["dependencies"].(map[string]any)["postgres"])

	status, raw := s.doRaw(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "ticket_desk_http_requests_total")
}

func TestTagAndActivityRoutes(t *testing.T) {
	s := newTestServer(t)
	a := s.register(t, "Alice", "assignee")
	u := s.register(t, "Ursula", "user")
	admin := s.register(t, "Root", "admin")

	status, _ := s.do(t, http.MethodPost, "/tags", a.Token, map[string]any{"name": "network"})
	assert.Equal(t, http.StatusForbidden, status)

	for _, name := range []string{"software", "hardware"} {
		status, body := s.do(t, http.MethodPost, "/tags", admin.Token, map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, status, body)
	}
	status, raw := s.doRaw(t, http.MethodGet, "/tags", u.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var tags []map[string]any
	require.NoError(t, json.Unmarshal(raw, &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "hardware", tags[0]["name"])

	tagID := tags[0]["id"].(string)
	status, body := s.do(t, http.MethodGet, "/tags/"+tagID, u.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hardware", body["name"])
	status, body = s.do(t, http.MethodDelete, "/tags/"+tagID, admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Tag deleted", body["message"])
	status, _ = s.do(t, http.MethodGet, "/tags/"+tagID, u.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, ticket := s.do(t, http.MethodPost, "/tickets", a.Token, map[string]any{
		"title":            "Monitor flickers",
		"assignedToUserId": u.ID,
	})
	require.Equal(t, http.StatusCreated, status, ticket)
	id := ticket["id"].(string)
	status, _ = s.do(t, http.MethodPut, "/tickets/"+id+"/revoke", u.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = s.doRaw(t, http.MethodGet, "/activity/"+id+"/user/"+a.ID, admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "created", entries[0]["action"])
	assert.Equal(t, a.ID, entries[0]["userId"])
}
