package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

func setupTestServer(t *testing.T, opts Options) (*Server, *auth.JWTManager) {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	if opts.JWT == nil {
		opts.JWT = jwtManager
	}
	l := ledger.NewService(store, auth.NewPasswordAuthenticator(store, bcrypt.MinCost), opts.JWT)
	return NewServer(l, opts), opts.JWT
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(r.body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		t.Fatalf("failed to decode %q: %v", r.body, err)
	}
}

func (r response) detail(t *testing.T) string {
	t.Helper()
	var e errorResponse
	r.decode(t, &e)
	return e.Detail
}

func (r response) message(t *testing.T) string {
	t.Helper()
	var m messageResponse
	r.decode(t, &m)
	return m.Message
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) response {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return response{status: rec.Code, body: rec.Body.Bytes()}
}

func login(t *testing.T, h http.Handler, username, password string) tokenResponse {
	t.Helper()
	if res := do(t, h, http.MethodPost, "/api/register", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)); res.status != http.StatusOK {
		t.Fatalf("register %s: status %d: %s", username, res.status, res.body)
	}
	res := do(t, h, http.MethodPost, "/api/login", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	if res.status != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, res.status, res.body)
	}
	var tok tokenResponse
	res.decode(t, &tok)
	return tok
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := setupTestServer(t, Options{})

	res := do(t, s, http.MethodPost, "/api/register", `{"username":"alice","password":"pw1"}`)
	if res.status != http.StatusOK || res.message(t) != "User created successfully" {
		t.Fatalf("register: %d %s", res.status, res.body)
	}

	res = do(t, s, http.MethodPost, "/api/register", `{"username":"alice","password":"other"}`)
	if res.status != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", res.status)
	}
	if got := res.detail(t); got != "Username already registered" {
		t.Errorf("detail = %q", got)
	}

	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"pw1"}`,
		`{"username":"","password":""}`,
	} {
		res = do(t, s, http.MethodPost, "/api/login", body)
		if res.status != http.StatusBadRequest || res.detail(t) != "Invalid credentials" {
			t.Errorf("login %s: %d %s", body, res.status, res.body)
		}
	}

	res = do(t, s, http.MethodPost, "/api/login", `{"username":"alice","password":"pw1"}`)
	if res.status != http.StatusOK {
		t.Fatalf("login: %d %s", res.status, res.body)
	}
	var tok tokenResponse
	res.decode(t, &tok)
	if tok.TokenType != "bearer" || tok.Username != "alice" || tok.UserID == 0 || tok.AccessToken == "" {
		t.Errorf("unexpected token response: %+v", tok)
	}

	res = do(t, s, http.MethodPost, "/api/register", `{"username":`)
	if res.status != http.StatusUnprocessableEntity {
		t.Errorf("malformed body status = %d, want 422", res.status)
	}
}

func TestTripScenario(t *testing.T) {
	s, _ := setupTestServer(t, Options{})
	alice := login(t, s, "alice", "pw1")
	bob := login(t, s, "bob", "pw2")

	res := do(t, s, http.MethodPost, fmt.Sprintf("/api/groups?user_id=%d", alice.UserID), `{"name":"Trip"}`)
	if res.status != http.StatusOK {
		t.Fatalf("create group: %d %s", res.status, res.body)
	}
	var trip groupOut
	res.decode(t, &trip)
	if trip.Name != "Trip" || trip.Code == "" || trip.ID == 0 {
		t.Fatalf("unexpected group: %+v", trip)
	}

	res = do(t, s, http.MethodPost, fmt.Sprintf("/api/groups/join?code=%s&user_id=%d", strings.ToLower(trip.Code), bob.UserID), "")
	var joined joinResponse
	res.decode(t, &joined)
	if res.status != http.StatusOK || joined.Message != "Joined group successfully" || joined.Group == nil || joined.Group.ID != trip.ID {
		t.Fatalf("join: %d %s", res.status, res.body)
	}

	res = do(t, s, http.MethodPost, fmt.Sprintf("/api/groups/join?code=%s&user_id=%d", trip.Code, bob.UserID), "")
	if res.status != http.StatusOK {
		t.Fatalf("second join: %d %s", res.status, res.body)
	}
	var again map[string]any
	res.decode(t, &again)
	if again["message"] != "Already a member" {
		t.Errorf("second join message = %v", again["message"])
	}
	if _, ok := again["group"]; ok {
		t.Error("already-member response should not carry a group")
	}

	res = do(t, s, http.MethodPost, fmt.Sprintf("/api/groups/join?code=NOPE2345&user_id=%d", bob.UserID), "")
	if res.status != http.StatusNotFound || res.detail(t) != "Group not found" {
		t.Errorf("join unknown code: %d %s", res.status, res.body)
	}

	res = do(t, s, http.MethodGet, fmt.Sprintf("/api/groups/%d", bob.UserID), "")
	var groups []groupOut
	res.decode(t, &groups)
	if len(groups) != 1 || groups[0].Code != trip.Code {
		t.Fatalf("bob's groups = %+v", groups)
	}

	body := fmt.Sprintf(`{"amount":42.5,"category":"Food","description":"Dinner","group_id":%d,"paid_by_id":%d}`, trip.ID, alice.UserID)
	res = do(t, s, http.MethodPost, "/api/expenses", body)
	if res.status != http.StatusOK || res.message(t) != "Expense added" {
		t.Fatalf("add expense: %d %s", res.status, res.body)
	}

	expenses := listExpenses(t, s, trip.ID)
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	e := expenses[0]
	if e.Amount.String() != "42.5" || e.PaidBy != "alice" || e.Category != "Food" {
		t.Errorf("unexpected expense: %+v", e)
	}
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`).MatchString(e.Date) {
		t.Errorf("date %q is not YYYY-MM-DD", e.Date)
	}

	res = do(t, s, http.MethodPut, fmt.Sprintf("/api/expenses/%d", e.ID), `{"category":"Dining","amount":null}`)
	if res.status != http.StatusOK || res.message(t) != "Expense updated" {
		t.Fatalf("update: %d %s", res.status, res.body)
	}
	updated := listExpenses(t, s, trip.ID)[0]
	if updated.Category != "Dining" || updated.Amount.String() != "42.5" || updated.Description != "Dinner" {
		t.Errorf("update changed more than category: %+v", updated)
	}

	res = do(t, s, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", e.ID), "")
	if res.status != http.StatusOK || res.message(t) != "Expense deleted" {
		t.Fatalf("delete: %d %s", res.status, res.body)
	}
	res = do(t, s, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", e.ID), "")
	if res.status != http.StatusNotFound || res.detail(t) != "Expense not found" {
		t.Errorf("second delete: %d %s", res.status, res.body)
	}
	res = do(t, s, http.MethodPut, fmt.Sprintf("/api/expenses/%d", e.ID), `{"category":"x"}`)
	if res.status != http.StatusNotFound {
		t.Errorf("update deleted expense status = %d, want 404", res.status)
	}
	if got := listExpenses(t, s, trip.ID); len(got) != 0 {
		t.Errorf("expected no expenses after delete, got %d", len(got))
	}

	res = do(t, s, http.MethodGet, fmt.Sprintf("/api/group/%d/members", trip.ID), "")
	var members []memberOut
	res.decode(t, &members)
	if len(members) != 2 || members[0].Username != "alice" || members[1].Username != "bob" {
		t.Errorf("members = %+v", members)
	}
}

func listExpenses(t *testing.T, h http.Handler, groupID int64) []expenseOut {
	t.Helper()
	res := do(t, h, http.MethodGet, fmt.Sprintf("/api/group/%d/expenses", groupID), "")
	if res.status != http.StatusOK {
		t.Fatalf("list expenses: %d %s", res.status, res.body)
	}
	var out []expenseOut
	res.decode(t, &out)
	return out
}

func TestAddExpenseValidation(t *testing.T) {
	s, _ := setupTestServer(t, Options{})
	alice := login(t, s, "alice", "pw1")

	res := do(t, s, http.MethodPost, fmt.Sprintf("/api/groups?user_id=%d", alice.UserID), `{"name":"Trip"}`)
	var trip groupOut
	res.decode(t, &trip)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing amount", fmt.Sprintf(`{"category":"c","description":"d","group_id":%d,"paid_by_id":%d}`, trip.ID, alice.UserID), http.StatusUnprocessableEntity},
		{"negative amount", fmt.Sprintf(`{"amount":-1,"category":"c","description":"d","group_id":%d,"paid_by_id":%d}`, trip.ID, alice.UserID), http.StatusUnprocessableEntity},
		{"unknown group", fmt.Sprintf(`{"amount":1,"category":"c","description":"d","group_id":999,"paid_by_id":%d}`, alice.UserID), http.StatusNotFound},
		{"unknown payer", fmt.Sprintf(`{"amount":1,"category":"c","description":"d","group_id":%d,"paid_by_id":999}`, trip.ID), http.StatusNotFound},
		{"string amount", fmt.Sprintf(`{"amount":"12.30","category":"c","description":"d","group_id":%d,"paid_by_id":%d}`, trip.ID, alice.UserID), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, s, http.MethodPost, "/api/expenses", tt.body)
			if res.status != tt.status {
				t.Errorf("status = %d, want %d: %s", res.status, tt.status, res.body)
			}
		})
	}

	res = do(t, s, http.MethodPost, "/api/groups", `{"name":"NoUser"}`)
	if res.status != http.StatusUnprocessableEntity {
		t.Errorf("create group without user_id status = %d, want 422", res.status)
	}
	res = do(t, s, http.MethodPost, fmt.Sprintf("/api/groups?user_id=%d", alice.UserID), `{"name":"  "}`)
	if res.status != http.StatusUnprocessableEntity {
		t.Errorf("create group with blank name status = %d, want 422", res.status)
	}
}

func TestBearerTokenMustMatchUser(t *testing.T) {
	s, _ := setupTestServer(t, Options{})
	alice := login(t, s, "alice", "pw1")
	bob := login(t, s, "bob", "pw2")

	target := fmt.Sprintf("/api/groups/%d", alice.UserID)

	if res := do(t, s, http.MethodGet, target, "", "Authorization", "Bearer "+alice.AccessToken); res.status != http.StatusOK {
		t.Errorf("own token status = %d, want 200", res.status)
	}
	if res := do(t, s, http.MethodGet, target, "", "Authorization", "Bearer "+bob.AccessToken); res.status != http.StatusForbidden {
		t.Errorf("other user's token status = %d, want 403", res.status)
	}
	if res := do(t, s, http.MethodGet, target, "", "Authorization", "Bearer garbage"); res.status != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", res.status)
	}
}

func TestAuthRateLimit(t *testing.T) {
	s, _ := setupTestServer(t, Options{AuthLimiter: middleware.NewRateLimiter(2)})

	body := `{"username":"alice","password":"wrong"}`
	for i := 0; i < 2; i++ {
		if res := do(t, s, http.MethodPost, "/api/login", body); res.status != http.StatusBadRequest {
			t.Fatalf("attempt %d status = %d, want 400", i+1, res.status)
		}
	}
	res := do(t, s, http.MethodPost, "/api/login", body)
	if res.status != http.StatusTooManyRequests {
		t.Fatalf("third attempt status = %d, want 429", res.status)
	}
	if got := res.detail(t); got != "Too many requests" {
		t.Errorf("detail = %q", got)
	}
}

func TestStaticAndFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "js"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _ := setupTestServer(t, Options{StaticDir: dir})

	res := do(t, s, http.MethodGet, "/static/js/app.js", "")
	if res.status != http.StatusOK || string(res.body) != "console.log(1)" {
		t.Errorf("static asset: %d %q", res.status, res.body)
	}

	for _, path := range []string{"/", "/groups/12", "/login"} {
		res = do(t, s, http.MethodGet, path, "")
		if res.status != http.StatusOK || !strings.Contains(string(res.body), "app") {
			t.Errorf("GET %s: %d %q", path, res.status, res.body)
		}
	}

	res = do(t, s, http.MethodGet, "/api/unknown", "")
	if res.status != http.StatusNotFound || res.detail(t) != "Not Found" {
		t.Errorf("unknown api route: %d %s", res.status, res.body)
	}
}
