package todoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasklist/cmd/identity"
	"tasklist/cmd/internal/todo"
	"tasklist/cmd/security/password"
	"tasklist/cmd/security/token"
)

type testEnv struct {
	srv      *httptest.Server
	accounts *identity.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	passwords := password.DefaultConfig()
	passwords.Params.MemoryKiB = 8 * 1024
	passwords.Params.Iterations = 1

	tokens, err := token.NewManager(token.Config{
		SecretKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:    "tasklist-test",
		AccessTTL: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("token.NewManager error: %v", err)
	}

	users := identity.NewInMemoryStore()
	accounts, err := identity.NewService(users, passwords, tokens)
	if err != nil {
		t.Fatalf("identity.NewService error: %v", err)
	}

	todos, err := todo.NewService(todo.NewInMemoryStore())
	if err != nil {
		t.Fatalf("todo.NewService error: %v", err)
	}

	h, err := NewHandler(nil, LoadConfigFromEnv(), todos, identity.NewResolver(users, tokens))
	if err != nil {
		t.Fatalf("NewHandler error: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, accounts: accounts}
}

// login registers a fresh user and returns a bearer token for it.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()

	_, err := e.accounts.Register(t.Context(), identity.RegisterInput{
		FullName: "Todo Tester",
		Email:    email,
		Password: "Correct1Horse",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	_, issued, err := e.accounts.Login(t.Context(), email, "Correct1Horse", time.Now())
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	return issued.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, bearer, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, path, err)
		}
	}
	return resp, out
}

func (e *testEnv) create(t *testing.T, bearer, task string, completed bool) string {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/todos", bearer,
		fmt.Sprintf(`{"task":%q,"completed":%v}`, task, completed))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create returned no id: %v", body)
	}
	return id
}

func TestTodos_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/todos"},
		{http.MethodPost, "/todos"},
		{http.MethodGet, "/todos/some-id"},
		{http.MethodPut, "/todos/some-id"},
		{http.MethodPatch, "/todos/some-id"},
		{http.MethodDelete, "/todos/some-id"},
		{http.MethodGet, "/todos/stats/count"},
	}
	for _, p := range paths {
		resp, _ := env.do(t, p.method, p.path, "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestTodos_CreateGet(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "alice@example.com")

	id := env.create(t, tok, "buy milk", false)

	resp, body := env.do(t, http.MethodGet, "/todos/"+id, tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if body["task"] != "buy milk" || body["completed"] != false {
		t.Fatalf("body = %v", body)
	}

	// Blank task is rejected.
	resp, body = env.do(t, http.MethodPost, "/todos", tok, `{"task":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank task status = %d, body = %v", resp.StatusCode, body)
	}

	// Unknown id is a 404.
	resp, _ = env.do(t, http.MethodGet, "/todos/01ARZ3NDEKTSV4RRFFQ69G5FAV", tok, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing id status = %d", resp.StatusCode)
	}
}

func TestTodos_OwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice@example.com")
	bob := env.login(t, "bob@example.com")

	id := env.create(t, alice, "alice's secret", false)

	// Bob sees 404 on every operation against Alice's todo.
	cases := []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPatch, `{"completed":true}`},
		{http.MethodPut, `{"task":"stolen"}`},
		{http.MethodDelete, ""},
	}
	for _, tc := range cases {
		resp, _ := env.do(t, tc.method, "/todos/"+id, bob, tc.body)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s as bob: status = %d", tc.method, resp.StatusCode)
		}
	}

	// Bob's list does not include it.
	resp, body := env.do(t, http.MethodGet, "/todos", bob, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if body["total"] != float64(0) {
		t.Fatalf("bob total = %v", body["total"])
	}

	// Alice still owns it untouched.
	resp, body = env.do(t, http.MethodGet, "/todos/"+id, alice, "")
	if resp.StatusCode != http.StatusOK || body["task"] != "alice's secret" {
		t.Fatalf("alice get: status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestTodos_ListPagingAndFilter(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "alice@example.com")

	for i := 0; i < 12; i++ {
		env.create(t, tok, fmt.Sprintf("task %d", i), i%2 == 0)
	}

	// Default page size is 10.
	resp, body := env.do(t, http.MethodGet, "/todos", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	items, _ := body["items"].([]any)
	if len(items) != 10 || body["total"] != float64(12) {
		t.Fatalf("default page: len=%d total=%v", len(items), body["total"])
	}

	resp, body = env.do(t, http.MethodGet, "/todos?skip=10&limit=5", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page 2 status = %d", resp.StatusCode)
	}
	items, _ = body["items"].([]any)
	if len(items) != 2 || body["total"] != float64(12) {
		t.Fatalf("page 2: len=%d total=%v", len(items), body["total"])
	}

	resp, body = env.do(t, http.MethodGet, "/todos?completed=true&limit=100", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filter status = %d", resp.StatusCode)
	}
	items, _ = body["items"].([]any)
	if len(items) != 6 || body["total"] != float64(6) {
		t.Fatalf("filter: len=%d total=%v", len(items), body["total"])
	}

	// Bad query values are 400s.
	for _, q := range []string{"?skip=-1", "?limit=101", "?limit=abc", "?completed=maybe"} {
		resp, _ := env.do(t, http.MethodGet, "/todos"+q, tok, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", q, resp.StatusCode)
		}
	}
}

func TestTodos_UpdateSemantics(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "alice@example.com")

	id := env.create(t, tok, "original", false)

	// PATCH with no fields is a 400.
	resp, body := env.do(t, http.MethodPatch, "/todos/"+id, tok, `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty PATCH status = %d", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "no_fields_provided" {
		t.Fatalf("empty PATCH code = %v", errObj["code"])
	}

	// PUT with no fields is a no-op read.
	resp, body = env.do(t, http.MethodPut, "/todos/"+id, tok, `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty PUT status = %d", resp.StatusCode)
	}
	if body["task"] != "original" || body["completed"] != false {
		t.Fatalf("empty PUT body = %v", body)
	}

	// Partial PATCH flips completion only.
	resp, body = env.do(t, http.MethodPatch, "/todos/"+id, tok, `{"completed":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH status = %d", resp.StatusCode)
	}
	if body["task"] != "original" || body["completed"] != true {
		t.Fatalf("PATCH body = %v", body)
	}

	// PUT renames.
	resp, body = env.do(t, http.MethodPut, "/todos/"+id, tok, `{"task":"renamed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	if body["task"] != "renamed" || body["completed"] != true {
		t.Fatalf("PUT body = %v", body)
	}

	// Emptying the task is rejected.
	resp, _ = env.do(t, http.MethodPatch, "/todos/"+id, tok, `{"task":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank task PATCH status = %d", resp.StatusCode)
	}
}

func TestTodos_Delete(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "alice@example.com")

	id := env.create(t, tok, "doomed", false)

	resp, _ := env.do(t, http.MethodDelete, "/todos/"+id, tok, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/todos/"+id, tok, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("double delete status = %d", resp.StatusCode)
	}
}

func TestTodos_Stats(t *testing.T) {
	env := newTestEnv(t)
	tok := env.login(t, "alice@example.com")
	other := env.login(t, "bob@example.com")

	env.create(t, tok, "a", true)
	env.create(t, tok, "b", false)
	env.create(t, tok, "c", false)
	env.create(t, other, "bob's", true)

	resp, body := env.do(t, http.MethodGet, "/todos/stats/count", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	if body["total"] != float64(3) || body["completed"] != float64(1) || body["pending"] != float64(2) {
		t.Fatalf("stats = %v", body)
	}
	if body["completion_rate"] != 33.3 {
		t.Fatalf("completion_rate = %v", body["completion_rate"])
	}

	// Empty list is all zeroes.
	fresh := env.login(t, "carol@example.com")
	resp, body = env.do(t, http.MethodGet, "/todos/stats/count", fresh, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("empty stats status = %d", resp.StatusCode)
	}
	if body["total"] != float64(0) || body["completion_rate"] != float64(0) {
		t.Fatalf("empty stats = %v", body)
	}
}
