package authapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasklist/cmd/identity"
	"tasklist/cmd/security/password"
	"tasklist/cmd/security/token"
)

func newTestHandler(t *testing.T) (*Handler, *identity.InMemoryStore) {
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

	store := identity.NewInMemoryStore()
	accounts, err := identity.NewService(store, passwords, tokens)
	if err != nil {
		t.Fatalf("identity.NewService error: %v", err)
	}

	h, err := NewHandler(nil, LoadConfigFromEnv(), accounts, identity.NewResolver(store, tokens))
	if err != nil {
		t.Fatalf("NewHandler error: %v", err)
	}
	return h, store
}

func newTestServer(t *testing.T) (*httptest.Server, *identity.InMemoryStore) {
	t.Helper()

	h, store := newTestHandler(t)
	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, bearer, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
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
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, url, err)
		}
	}
	return resp, out
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "",
		`{"full_name":"Test User","email":"`+email+`","password":"Correct1Horse"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		`{"email":"`+email+`","password":"Correct1Horse"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	tok, _ := body["access_token"].(string)
	if tok == "" {
		t.Fatalf("login returned no access_token: %v", body)
	}
	return tok
}

func TestRegister_CreatesUser(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "",
		`{"full_name":"Alice Example","email":"Alice@Example.com","password":"Correct1Horse"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["email"] != "Alice@Example.com" {
		t.Fatalf("email = %v", body["email"])
	}
	if body["full_name"] != "Alice Example" {
		t.Fatalf("full_name = %v", body["full_name"])
	}
	if body["is_active"] != true {
		t.Fatalf("is_active = %v", body["is_active"])
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Fatalf("response leaks password hash: %v", body)
	}
}

func TestRegister_Rejections(t *testing.T) {
	srv, _ := newTestServer(t)

	// Seed one user for the duplicate case.
	registerAndLogin(t, srv, "taken@example.com")

	cases := []struct {
		name string
		body string
		code string
	}{
		{"duplicate email", `{"full_name":"B","email":"TAKEN@example.com","password":"Correct1Horse"}`, "email_registered"},
		{"weak password", `{"full_name":"B","email":"b@example.com","password":"nodigitshere"}`, "invalid_request"},
		{"bad email", `{"full_name":"B","email":"nope","password":"Correct1Horse"}`, "invalid_request"},
		{"invalid json", `{"full_name":`, "invalid_json"},
		{"unknown field", `{"full_name":"B","email":"b@example.com","password":"Correct1Horse","admin":true}`, "invalid_json"},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, resp.StatusCode)
		}
		errObj, _ := body["error"].(map[string]any)
		if errObj["code"] != tc.code {
			t.Fatalf("%s: code = %v, want %s", tc.name, errObj["code"], tc.code)
		}
	}
}

func TestLogin_TokenShape(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		`{"email":"alice@example.com","password":"Correct1Horse"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["token_type"] != "bearer" {
		t.Fatalf("token_type = %v", body["token_type"])
	}
	if body["expires_in"] != float64(1800) {
		t.Fatalf("expires_in = %v", body["expires_in"])
	}
}

func TestLogin_Failures(t *testing.T) {
	srv, store := newTestServer(t)
	tok := registerAndLogin(t, srv, "alice@example.com")

	// Unknown email and wrong password return the same status and code.
	for _, body := range []string{
		`{"email":"nobody@example.com","password":"Correct1Horse"}`,
		`{"email":"alice@example.com","password":"Wrong1Password"}`,
	} {
		resp, out := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		errObj, _ := out["error"].(map[string]any)
		if errObj["code"] != "invalid_credentials" {
			t.Fatalf("code = %v", errObj["code"])
		}
	}

	// Disabled account with correct password gets a distinct code.
	resp, me := doJSON(t, http.MethodGet, srv.URL+"/auth/me", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	store.SetActive(me["id"].(string), false)

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		`{"email":"alice@example.com","password":"Correct1Horse"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("disabled status = %d", resp.StatusCode)
	}
	errObj, _ := out["error"].(map[string]any)
	if errObj["code"] != "account_disabled" {
		t.Fatalf("disabled code = %v", errObj["code"])
	}
}

func TestMe_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	tok := registerAndLogin(t, srv, "alice@example.com")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/auth/me", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["email"] != "alice@example.com" {
		t.Fatalf("email = %v", body["email"])
	}

	for _, bearer := range []string{"", "not-a-token"} {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/auth/me", bearer, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("bearer %q: status = %d", bearer, resp.StatusCode)
		}
	}
}

func TestProfileUpdate(t *testing.T) {
	srv, _ := newTestServer(t)
	tok := registerAndLogin(t, srv, "alice@example.com")
	registerAndLogin(t, srv, "bob@example.com")

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/auth/me", tok,
		`{"full_name":"Alice Renamed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["full_name"] != "Alice Renamed" {
		t.Fatalf("full_name = %v", body["full_name"])
	}
	if body["email"] != "alice@example.com" {
		t.Fatalf("email changed: %v", body["email"])
	}

	// Taking another user's email is a conflict.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/auth/me", tok,
		`{"email":"bob@example.com"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("conflict status = %d", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "email_registered" {
		t.Fatalf("conflict code = %v", errObj["code"])
	}

	// Empty patch is a no-op, not an error.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/auth/me", tok, `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("noop status = %d", resp.StatusCode)
	}
	if body["full_name"] != "Alice Renamed" {
		t.Fatalf("noop mutated: %v", body["full_name"])
	}
}

func TestPasswordChange(t *testing.T) {
	srv, _ := newTestServer(t)
	tok := registerAndLogin(t, srv, "alice@example.com")

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/auth/me/password", tok,
		`{"current_password":"Wrong1Password","new_password":"NewPassword1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong current: status = %d", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "current_password_incorrect" {
		t.Fatalf("code = %v", errObj["code"])
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/auth/me/password", tok,
		`{"current_password":"Correct1Horse","new_password":"weak"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak new: status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/auth/me/password", tok,
		`{"current_password":"Correct1Horse","new_password":"NewPassword1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change status = %d", resp.StatusCode)
	}

	// Old password is out, new one works.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		`{"email":"alice@example.com","password":"Correct1Horse"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "",
		`{"email":"alice@example.com","password":"NewPassword1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new password status = %d", resp.StatusCode)
	}
}

func TestRefresh(t *testing.T) {
	srv, _ := newTestServer(t)
	tok := registerAndLogin(t, srv, "alice@example.com")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/refresh", tok, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	fresh, _ := body["access_token"].(string)
	if fresh == "" || body["token_type"] != "bearer" {
		t.Fatalf("body = %v", body)
	}

	// The fresh token authenticates.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/auth/me", fresh, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fresh token status = %d", resp.StatusCode)
	}

	// No token, no refresh.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/refresh", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anon refresh status = %d", resp.StatusCode)
	}
}
