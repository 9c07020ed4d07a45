package stub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ticketbooth/internal/limiter"
	"ticketbooth/internal/model"
)

func newTestHandler(t *testing.T, lim limiter.Limiter) (*Store, http.Handler) {
	t.Helper()
	store := NewStore()
	srv := NewServer(store, zap.NewNop(), []byte("test-secret"), time.Hour, lim)
	return store, srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type authBody struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ID          string `json:"_id"`
}

func registerUser(t *testing.T, h http.Handler, name, email string) authBody {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/user/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](t, rec)
}

func TestServer_RegisterValidation(t *testing.T) {
	t.Parallel()
	_, h := newTestHandler(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/user/auth/register", "", map[string]string{"email": "a@b.c"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	registerUser(t, h, "Alice", "alice@example.com")
	rec = doJSON(t, h, http.MethodPost, "/user/auth/register", "", map[string]string{
		"name": "Dup", "email": "alice@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "Email already registered", decode[map[string]string](t, rec)["message"])
}

func TestServer_RegisterNeverGrantsAdminSilently(t *testing.T) {
	t.Parallel()
	_, h := newTestHandler(t, nil)
	rec := doJSON(t, h, http.MethodPost, "/user/auth/register", "", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "pw123456", "role": "superuser",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, string(model.RoleUser), decode[authBody](t, rec).Role)
}

func TestServer_LoginAndMe(t *testing.T) {
	t.Parallel()
	_, h := newTestHandler(t, nil)
	registerUser(t, h, "Alice", "alice@example.com")

	rec := doJSON(t, h, http.MethodPost, "/user/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	auth := decode[authBody](t, rec)
	require.NotEmpty(t, auth.AccessToken)
	require.Equal(t, string(model.RoleUser), auth.Role)

	// Email matching is case-insensitive.
	rec = doJSON(t, h, http.MethodPost, "/user/auth/login", "", map[string]string{
		"email": "Alice@Example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/user/auth/me", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]string](t, rec)
	require.Equal(t, auth.ID, me["id"])
	require.Equal(t, "alice@example.com", me["email"])

	rec = doJSON(t, h, http.MethodGet, "/user/auth/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_LoginRateLimit(t *testing.T) {
	t.Parallel()
	_, h := newTestHandler(t, limiter.NewMemory(2, time.Minute))
	registerUser(t, h, "Alice", "alice@example.com")

	bad := map[string]string{"email": "alice@example.com", "password": "wrong"}
	for i := 0; i < 2; i++ {
		rec := doJSON(t, h, http.MethodPost, "/user/auth/login", "", bad)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid credentials", decode[map[string]string](t, rec)["message"])
	}

	// Locked out now, even with the right password.
	rec := doJSON(t, h, http.MethodPost, "/user/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret12",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServer_ConcertAdminGuard(t *testing.T) {
	t.Parallel()
	store, h := newTestHandler(t, nil)
	user := registerUser(t, h, "Alice", "alice@example.com")

	create := map[string]any{"name": "Show", "maxSeats": 10}
	rec := doJSON(t, h, http.MethodPost, "/concerts/create", user.AccessToken, create)
	require.Equal(t, http.StatusForbidden, rec.Code)

	_, err := store.CreateUser("Admin", "admin@example.com", "admin1234", model.RoleAdmin)
	require.NoError(t, err)
	rec = doJSON(t, h, http.MethodPost, "/user/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin1234",
	})
	adminAuth := decode[authBody](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/concerts/create", adminAuth.AccessToken, create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	concertID := created["_id"].(string)

	// Cancel requires the explicit status body.
	rec = doJSON(t, h, http.MethodPatch, "/concerts/"+concertID+"/cancel", adminAuth.AccessToken, map[string]string{"status": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/concerts/"+concertID+"/cancel", adminAuth.AccessToken, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/concerts/missing/cancel", adminAuth.AccessToken, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Concert not found", decode[map[string]string](t, rec)["message"])
}

func TestServer_ReserveRoutes(t *testing.T) {
	t.Parallel()
	store, h := newTestHandler(t, nil)
	user := registerUser(t, h, "Alice", "alice@example.com")
	concert := store.CreateConcert("Show", "", 1)

	rec := doJSON(t, h, http.MethodPost, "/reserve/"+user.ID+"/"+concert.ID, user.AccessToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	require.NotEmpty(t, res["_id"])
	require.Equal(t, string(model.StatusConfirmed), res["status"])

	// Acting on another user's path is forbidden for non-admins.
	other := registerUser(t, h, "Bob", "bob@example.com")
	rec = doJSON(t, h, http.MethodPost, "/reserve/"+user.ID+"/"+concert.ID, other.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/reserve/"+user.ID+"/"+concert.ID, user.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/reserve/"+user.ID+"/"+concert.ID, user.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Reservation not found", decode[map[string]string](t, rec)["message"])
}

func TestServer_TransactionScopes(t *testing.T) {
	t.Parallel()
	store, h := newTestHandler(t, nil)
	alice := registerUser(t, h, "Alice", "alice@example.com")
	bob := registerUser(t, h, "Bob", "bob@example.com")
	concert := store.CreateConcert("Show", "", 10)

	_, err := store.Reserve(alice.ID, concert.ID)
	require.NoError(t, err)
	_, err = store.Reserve(bob.ID, concert.ID)
	require.NoError(t, err)

	type pageBody struct {
		Data []map[string]any `json:"data"`
		Meta map[string]int   `json:"meta"`
	}

	// Default scope is the caller's own history.
	rec := doJSON(t, h, http.MethodGet, "/transactions/list?page=1&limit=5", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[pageBody](t, rec).Data, 1)

	// Global history is admin-only.
	rec = doJSON(t, h, http.MethodGet, "/transactions/list?admin=true", alice.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Peeking at another user's history is forbidden too.
	rec = doJSON(t, h, http.MethodGet, "/transactions/list?userId="+bob.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	_, err = store.CreateUser("Admin", "admin@example.com", "admin1234", model.RoleAdmin)
	require.NoError(t, err)
	rec = doJSON(t, h, http.MethodPost, "/user/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "admin1234",
	})
	adminAuth := decode[authBody](t, rec)

	rec = doJSON(t, h, http.MethodGet, "/transactions/list?admin=true", adminAuth.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageBody](t, rec)
	require.Len(t, page.Data, 2)
	require.Equal(t, 2, page.Meta["total"])
	require.Equal(t, 1, page.Meta["pages"])
}
