package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskify-app/taskify-be/internal/api"
	"github.com/taskify-app/taskify-be/internal/auth"
	"github.com/taskify-app/taskify-be/internal/config"
	"github.com/taskify-app/taskify-be/internal/database"
	"github.com/taskify-app/taskify-be/internal/models"
	"github.com/taskify-app/taskify-be/internal/services"
	"github.com/taskify-app/taskify-be/internal/websocket"
)

type testApp struct {
	db     *sql.DB
	router *chi.Mux
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	hub := websocket.NewHub()
	go hub.Run()

	cfg := &config.Config{
		Env:             "development",
		CORSOrigins:     []string{"http://localhost:5173"},
		SessionTTL:      7 * 24 * time.Hour,
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
	}

	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db, cfg.SessionTTL)
	taskService := services.NewTaskService(db, hub)

	return &testApp{
		db:     db,
		router: api.NewRouter(cfg, hub, userService, sessionService, taskService),
	}
}

// do issues a JSON request against the router, attaching the session cookie
// when one is given.
func (a *testApp) do(t *testing.T, method, path string, body interface{}, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func (a *testApp) register(t *testing.T, email, password, name string) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": email, "password": password, "name": name}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Kind
}

func TestRegisterSetsSessionAndMe(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "secret1", "name": "A"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg struct {
		Success bool              `json:"success"`
		User    models.PublicUser `json:"user"`
	}
	decodeBody(t, rec, &reg)
	assert.True(t, reg.Success)
	assert.Equal(t, "a@x.com", reg.User.Email)
	assert.Equal(t, "A", reg.User.Name)
	assert.NotEmpty(t, reg.User.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	me := app.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, me.Code)

	var meBody struct {
		User models.PublicUser `json:"user"`
	}
	decodeBody(t, me, &meBody)
	assert.Equal(t, reg.User, meBody.User)
}

func TestRegisterDuplicate(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@x.com", "secret1", "A")

	rec := app.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "a@x.com", "password": "secret1", "name": "B"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errorKind(t, rec))
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"email": "nope", "password": "123", "name": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Kind   string            `json:"kind"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "validation_error", body.Error.Kind)
	assert.Contains(t, body.Error.Fields, "email")
	assert.Contains(t, body.Error.Fields, "password")
	assert.Contains(t, body.Error.Fields, "name")
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@x.com", "secret1", "A")

	rec := app.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "a@x.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	me := app.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@x.com", "secret1", "A")

	var before int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(1) FROM sessions").Scan(&before))

	rec := app.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "a@x.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorKind(t, rec))

	var after int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(1) FROM sessions").Scan(&after))
	assert.Equal(t, before, after, "a failed login must not create a session")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "secret1", "A")

	rec := app.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0 || cleared.Expires.Before(time.Now()))

	// The destroyed session no longer authenticates.
	me := app.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/tasks"},
		{http.MethodPost, "/api/v1/tasks"},
		{http.MethodPut, "/api/v1/tasks/some-id"},
		{http.MethodDelete, "/api/v1/tasks/some-id"},
	} {
		rec := app.do(t, tc.method, tc.path, nil, nil)
		assert.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "unauthorized", errorKind(t, rec))
	}
}

func TestTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	cookie := app.register(t, "a@x.com", "secret1", "A")

	// Create
	rec := app.do(t, http.MethodPost, "/api/v1/tasks",
		map[string]string{"title": "buy milk"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task models.Task
	decodeBody(t, rec, &task)
	assert.Equal(t, "buy milk", task.Title)
	assert.Empty(t, task.Description)
	assert.False(t, task.Completed)

	// List includes it exactly once
	rec = app.do(t, http.MethodGet, "/api/v1/tasks", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []models.Task
	decodeBody(t, rec, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	// Complete it
	rec = app.do(t, http.MethodPut, "/api/v1/tasks/"+task.ID,
		map[string]bool{"completed": true}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Task
	decodeBody(t, rec, &updated)
	assert.True(t, updated.Completed)
	assert.True(t, !updated.UpdatedAt.Before(task.UpdatedAt))

	rec = app.do(t, http.MethodGet, "/api/v1/tasks", nil, cookie)
	decodeBody(t, rec, &tasks)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)

	// Delete
	rec = app.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/tasks", nil, cookie)
	decodeBody(t, rec, &tasks)
	assert.Empty(t, tasks)

	// Deletion is strict: repeating it reports not_found.
	rec = app.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))
}

func TestTaskIsolationBetweenUsers(t *testing.T) {
	app := newTestApp(t)
	ownerCookie := app.register(t, "owner@x.com", "secret1", "Owner")
	otherCookie := app.register(t, "other@x.com", "secret1", "Other")

	rec := app.do(t, http.MethodPost, "/api/v1/tasks",
		map[string]string{"title": "private"}, ownerCookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var task models.Task
	decodeBody(t, rec, &task)

	rec = app.do(t, http.MethodGet, "/api/v1/tasks", nil, otherCookie)
	var tasks []models.Task
	decodeBody(t, rec, &tasks)
	assert.Empty(t, tasks)

	rec = app.do(t, http.MethodPut, "/api/v1/tasks/"+task.ID,
		map[string]bool{"completed": true}, otherCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, nil, otherCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
