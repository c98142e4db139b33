package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/auth"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
	pdtesting "github.com/printdesk/printdesk/testing"
)

const testPassword = "correct-horse"

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	service  *auth.Service
}

// newFixture mounts the auth routes behind a middleware that loads the Redis
// session and restores the identity before each request.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	_, client := pdtesting.Redis(t)

	service, err := auth.NewServiceWithPassword(auth.NewDirectory(auth.DemoUsers()), testPassword)
	require.NoError(t, err)

	f := &fixture{
		sessions: shared.NewSessionManager(client, "test_session", time.Hour, false),
		service:  service,
	}
	rbacMW := rbac.Middleware{Resolve: func(r *http.Request) rbac.Principal { return auth.PrincipalFromContext(r.Context()) }}
	handler := auth.NewHandler(nil, service, shared.NewCSRFManager("csrfsecret"), rbacMW)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := f.sessions.Load(req.Context(), req)
			require.NoError(t, err)
			identity := auth.NewSession(sess, service)
			require.NoError(t, identity.Init())
			ctx := shared.ContextWithSession(req.Context(), sess)
			ctx = auth.ContextWithSession(ctx, identity)
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, req.WithContext(ctx))
			require.NoError(t, f.sessions.Commit(ctx, w, sess))
			for k, v := range rec.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
		})
	})
	r.Route("/auth", handler.MountRoutes)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func (f *fixture) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	res := f.do(t, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	for _, c := range res.Result().Cookies() {
		if c.Name == f.sessions.CookieName() {
			return c
		}
	}
	t.Fatalf("session cookie missing")
	return nil
}

func TestLoginSuccessPersistsIdentity(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "sales@printdesk.local")

	res := f.do(t, http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		User        auth.User `json:"user"`
		Permissions []string  `json:"permissions"`
		CSRFToken   string    `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "u-sales", body.User.ID)
	assert.Equal(t, rbac.RoleSalesExecutive, body.User.Role)
	assert.Contains(t, body.Permissions, rbac.PermOrdersCreate)
	assert.NotEmpty(t, body.CSRFToken)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/auth/login", `{"email":"sales@printdesk.local","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = f.do(t, http.MethodPost, "/auth/login", `{"email":"nobody@printdesk.local","password":"`+testPassword+`"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodPost, "/auth/login", `{"email":"not-an-email","password":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestMeRequiresSession(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogoutClearsIdentity(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "admin@printdesk.local")

	res := f.do(t, http.MethodPost, "/auth/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = f.do(t, http.MethodGet, "/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestNavigationFollowsDepartment(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t, "driver@printdesk.local")

	res := f.do(t, http.MethodGet, "/auth/navigation", "", cookie)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Items []rbac.NavItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	keys := make([]string, 0, len(body.Items))
	for _, item := range body.Items {
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"jobs", "delivery"}, keys)
}

func TestUsersListIsAdminOnly(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/auth/users", "", f.login(t, "sales.manager@printdesk.local"))
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = f.do(t, http.MethodGet, "/auth/users", "", f.login(t, "admin@printdesk.local"))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "driver@printdesk.local")
}

func TestMeSurfacesTokenFailure(t *testing.T) {
	service, err := auth.NewServiceWithPassword(auth.NewDirectory(auth.DemoUsers()), testPassword)
	require.NoError(t, err)
	identity := auth.NewSession(&auth.MemoryStore{}, service)
	require.NoError(t, identity.Init())
	_, err = identity.Authenticate(context.Background(), "qc@printdesk.local", testPassword)
	require.NoError(t, err)

	rbacMW := rbac.Middleware{Resolve: func(r *http.Request) rbac.Principal { return auth.PrincipalFromContext(r.Context()) }}
	r := chi.NewRouter()
	r.Route("/auth", auth.NewHandler(nil, service, shared.NewCSRFManager("csrfsecret"), rbacMW).MountRoutes)

	// no HTTP session in context, so no token can be bound
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(auth.ContextWithSession(req.Context(), identity))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotContains(t, res.Body.String(), `"csrf_token"`)
}

func TestSessionLifecycleWithMemoryStore(t *testing.T) {
	service, err := auth.NewServiceWithPassword(auth.NewDirectory(auth.DemoUsers()), testPassword)
	require.NoError(t, err)
	store := &auth.MemoryStore{}

	sess := auth.NewSession(store, service)
	require.NoError(t, sess.Init())
	_, ok := sess.User()
	assert.False(t, ok)

	_, err = sess.Authenticate(context.Background(), "qc@printdesk.local", testPassword)
	require.NoError(t, err)
	assert.True(t, sess.HasPermission(rbac.PermJobsPhaseUpdate))
	assert.False(t, sess.HasPermission(rbac.PermOrdersCreate))

	restored := auth.NewSession(store, service)
	require.NoError(t, restored.Init())
	user, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, "u-qc", user.ID)

	_, err = restored.Authenticate(context.Background(), "qc@printdesk.local", "nope")
	require.Error(t, err)
	user, ok = restored.User()
	require.True(t, ok, "failed sign-in keeps the previous identity")
	assert.Equal(t, "u-qc", user.ID)

	restored.Clear()
	_, ok = restored.User()
	assert.False(t, ok)
	assert.Empty(t, store.LoadIdentity())
}

func TestSessionDiscardsCorruptIdentity(t *testing.T) {
	service, err := auth.NewServiceWithPassword(auth.NewDirectory(auth.DemoUsers()), testPassword)
	require.NoError(t, err)
	store := &auth.MemoryStore{}
	store.SaveIdentity([]byte("{not json"))

	sess := auth.NewSession(store, service)
	require.Error(t, sess.Init())
	_, ok := sess.User()
	assert.False(t, ok)
	assert.Empty(t, store.LoadIdentity())
}
