package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"ticketbooth/internal/api"
	"ticketbooth/internal/errs"
	"ticketbooth/internal/model"
	"ticketbooth/internal/stub"
)

// testEnv is a client wired to an in-process backend. The token field is
// mutable so tests can switch identities mid-flow.
type testEnv struct {
	client *api.Client
	store  *stub.Store
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := stub.NewStore()
	srv := stub.NewServer(store, zap.NewNop(), []byte("test-secret"), time.Hour, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	env := &testEnv{store: store}
	env.client = api.New(ts.URL, api.WithTokenSource(func() string { return env.token }))
	return env
}

// loginAs registers (or logs in) and adopts the session token.
func (e *testEnv) register(t *testing.T, name, email, password string) api.AuthResult {
	t.Helper()
	res, err := e.client.Register(context.Background(), name, email, password, model.RoleUser)
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	e.token = res.Token
	return res
}

func (e *testEnv) loginAdmin(t *testing.T) api.AuthResult {
	t.Helper()
	if _, err := e.store.CreateUser("Admin", "admin@example.com", "admin1234", model.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	res, err := e.client.Login(context.Background(), "admin@example.com", "admin1234")
	if err != nil {
		t.Fatalf("Login admin: %v", err)
	}
	e.token = res.Token
	return res
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "secret12")
	env.token = ""

	_, err := env.client.Login(context.Background(), "alice@example.com", "wrong")
	apiErr := errs.AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Fatalf("got %d %q, want 401 \"Invalid credentials\"", apiErr.Status, apiErr.Message)
	}
}

func TestDo_FallbackMessageOnEmptyBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	_, err := client.Login(context.Background(), "a@b.c", "pw")
	apiErr := errs.AsAPIError(err)
	if apiErr == nil || apiErr.Message != "Login failed" {
		t.Fatalf("want fallback \"Login failed\", got %v", err)
	}
}

func TestRegisterAndMe(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	res := env.register(t, "Alice", "alice@example.com", "secret12")
	if res.Token == "" || res.UserID == "" || res.Role != model.RoleUser {
		t.Fatalf("auth result incomplete: %+v", res)
	}

	user, err := env.client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != res.UserID || user.Email != "alice@example.com" || user.Role != model.RoleUser {
		t.Fatalf("Me = %+v, want the registered account", user)
	}

	// Duplicate registration is rejected with a stable message.
	_, err = env.client.Register(context.Background(), "Alice2", "alice@example.com", "other123", model.RoleUser)
	apiErr := errs.AsAPIError(err)
	if apiErr == nil || apiErr.Status != http.StatusConflict || apiErr.Message != "Email already registered" {
		t.Fatalf("want 409 \"Email already registered\", got %v", err)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	_, err := env.client.Me(context.Background())
	apiErr := errs.AsAPIError(err)
	if apiErr == nil || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("want 401, got %v", err)
	}
}

func TestListConcerts_PaginationMeta(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.loginAdmin(t)
	for i := 0; i < 7; i++ {
		if _, err := env.client.CreateConcert(context.Background(), api.CreateConcertParams{
			Name: "Show", MaxSeats: 10,
		}); err != nil {
			t.Fatalf("CreateConcert: %v", err)
		}
	}

	page, err := env.client.ListConcerts(context.Background(), api.ListConcertsParams{Page: 3, Limit: 3})
	if err != nil {
		t.Fatalf("ListConcerts: %v", err)
	}
	if page.Meta.Total != 7 || page.Meta.Pages != 3 {
		t.Fatalf("meta = %+v, want total 7 pages 3", page.Meta)
	}
	if len(page.Concerts) != 1 {
		t.Fatalf("last page has %d items, want 1", len(page.Concerts))
	}
}

func TestReserveCancelFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.loginAdmin(t)
	concert, err := env.client.CreateConcert(context.Background(), api.CreateConcertParams{
		Name: "Midnight Echoes", Description: "Indie rock", MaxSeats: 2,
	})
	if err != nil {
		t.Fatalf("CreateConcert: %v", err)
	}

	user := env.register(t, "Alice", "alice@example.com", "secret12")

	resID, err := env.client.Reserve(context.Background(), user.UserID, concert.ID)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if resID == "" {
		t.Fatalf("empty reservation id")
	}

	// The listing embeds the caller's reservation state.
	page, err := env.client.ListConcerts(context.Background(), api.ListConcertsParams{
		UserID: user.UserID, Page: 1, Limit: 5,
	})
	if err != nil {
		t.Fatalf("ListConcerts: %v", err)
	}
	got := page.Concerts[0]
	if got.ReservationID != resID || got.ReservationStatus != model.StatusConfirmed {
		t.Fatalf("listed concert = %+v, want confirmed reservation %s", got, resID)
	}
	if got.VenueCapacity != 2 || got.MyReservedSeats != 1 {
		t.Fatalf("capacity/seats = %d/%d, want 2/1", got.VenueCapacity, got.MyReservedSeats)
	}

	// Double reserve is rejected server-side.
	if _, err := env.client.Reserve(context.Background(), user.UserID, concert.ID); err == nil {
		t.Fatalf("want rejection of double reserve")
	}

	if err := env.client.CancelReservation(context.Background(), user.UserID, concert.ID); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}

	page, err = env.client.ListConcerts(context.Background(), api.ListConcertsParams{
		UserID: user.UserID, Page: 1, Limit: 5,
	})
	if err != nil {
		t.Fatalf("ListConcerts after cancel: %v", err)
	}
	got = page.Concerts[0]
	if got.ReservationStatus != model.StatusCancelled || got.ReservationID != "" {
		t.Fatalf("after cancel: %+v, want CANCELLED with no id", got)
	}

	// Cancelling again surfaces the server's not-found message.
	err = env.client.CancelReservation(context.Background(), user.UserID, concert.ID)
	apiErr := errs.AsAPIError(err)
	if apiErr == nil || apiErr.Status != http.StatusNotFound || apiErr.Message != "Reservation not found" {
		t.Fatalf("want 404 \"Reservation not found\", got %v", err)
	}
}

func TestReserve_ForbiddenForOtherUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.loginAdmin(t)
	concert, err := env.client.CreateConcert(context.Background(), api.CreateConcertParams{Name: "Show", MaxSeats: 5})
	if err != nil {
		t.Fatalf("CreateConcert: %v", err)
	}

	env.register(t, "Alice", "alice@example.com", "secret12")
	_, err = env.client.Reserve(context.Background(), "someone-else", concert.ID)
	apiErr := errs.AsAPIError(err)
	if apiErr == nil || apiErr.Status != http.StatusForbidden {
		t.Fatalf("want 403, got %v", err)
	}
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.loginAdmin(t)
	concert, err := env.client.CreateConcert(context.Background(), api.CreateConcertParams{Name: "Show", MaxSeats: 50})
	if err != nil {
		t.Fatalf("CreateConcert: %v", err)
	}

	adminToken := env.token
	user := env.register(t, "Alice", "alice@example.com", "secret12")
	if _, err := env.client.Reserve(context.Background(), user.UserID, concert.ID); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	// Non-admins cannot touch the dashboard or concert mutation endpoints.
	if _, err := env.client.DashboardStats(context.Background()); errs.AsAPIError(err) == nil {
		t.Fatalf("want 403 for user dashboard access, got %v", err)
	}
	if _, err := env.client.CancelConcert(context.Background(), concert.ID); errs.AsAPIError(err) == nil {
		t.Fatalf("want 403 for user concert cancel, got %v", err)
	}

	env.token = adminToken
	stats, err := env.client.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalSeats != 50 || stats.ReservedCount != 1 || stats.CancelledCount != 0 {
		t.Fatalf("stats = %+v, want 50/1/0", stats)
	}

	txs, err := env.client.ListTransactions(context.Background(), api.ListTransactionsParams{Admin: true, Page: 1, Limit: 5})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs.Transactions) != 1 || txs.Transactions[0].Action != model.StatusConfirmed {
		t.Fatalf("transactions = %+v, want one CONFIRMED record", txs.Transactions)
	}

	if _, err := env.client.CancelConcert(context.Background(), concert.ID); err != nil {
		t.Fatalf("CancelConcert: %v", err)
	}
	// Cancelled concerts drop out of listings and the seat total.
	page, err := env.client.ListConcerts(context.Background(), api.ListConcertsParams{Page: 1, Limit: 5})
	if err != nil {
		t.Fatalf("ListConcerts: %v", err)
	}
	if len(page.Concerts) != 0 {
		t.Fatalf("cancelled concert still listed: %+v", page.Concerts)
	}
	stats, err = env.client.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if stats.TotalSeats != 0 {
		t.Fatalf("TotalSeats = %d, want 0 after concert cancel", stats.TotalSeats)
	}

	_, err = env.client.CancelConcert(context.Background(), "missing")
	apiErr := errs.AsAPIError(err)
	if apiErr == nil || apiErr.Message != "Concert not found" {
		t.Fatalf("want \"Concert not found\", got %v", err)
	}
}
