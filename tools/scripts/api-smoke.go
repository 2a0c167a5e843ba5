// Package main provides a CI-friendly HTTP smoke test for the tasklist API.
//
// It validates:
//   - liveness and readiness endpoints
//   - register -> login -> bearer auth on /auth/me
//   - todo create, list, partial update, stats
//   - owner scoping (a second user sees an empty list)
//   - delete -> 404 on re-read
package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type smokeClient struct {
	base    string
	token   string
	client  *http.Client
	verbose bool
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "API base URL")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	sc := &smokeClient{
		base:    *baseURL,
		client:  &http.Client{Timeout: *timeout},
		verbose: *verbose,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*(*timeout))
	defer cancel()

	if err := run(ctx, sc); err != nil {
		fatalf("smoke test failed: %v", err)
	}
	fmt.Println("smoke test: all steps passed")
}

func run(ctx context.Context, sc *smokeClient) error {
	for _, path := range []string{"/healthz", "/readyz"} {
		if _, err := sc.do(ctx, http.MethodGet, path, nil, http.StatusOK); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	email := "smoke-" + randomHex(6) + "@example.com"
	const pass = "Smoke-Pass-1"

	if _, err := sc.do(ctx, http.MethodPost, "/auth/register", map[string]any{
		"full_name": "Smoke Tester",
		"email":     email,
		"password":  pass,
	}, http.StatusCreated); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	body, err := sc.do(ctx, http.MethodPost, "/auth/login", map[string]any{
		"email":    email,
		"password": pass,
	}, http.StatusOK)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return fmt.Errorf("login: bad token payload: %s", body)
	}
	sc.token = tok.AccessToken

	if _, err := sc.do(ctx, http.MethodGet, "/auth/me", nil, http.StatusOK); err != nil {
		return fmt.Errorf("me: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	body, err = sc.do(ctx, http.MethodPost, "/todos", map[string]any{"task": "smoke: first"}, http.StatusCreated)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return fmt.Errorf("create todo: bad payload: %s", body)
	}
	if _, err := sc.do(ctx, http.MethodPost, "/todos", map[string]any{"task": "smoke: second", "completed": true}, http.StatusCreated); err != nil {
		return fmt.Errorf("create second todo: %w", err)
	}

	if _, err := sc.do(ctx, http.MethodPatch, "/todos/"+created.ID, map[string]any{"completed": true}, http.StatusOK); err != nil {
		return fmt.Errorf("patch todo: %w", err)
	}

	var list struct {
		Total int `json:"total"`
	}
	body, err = sc.do(ctx, http.MethodGet, "/todos", nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("list todos: %w", err)
	}
	if err := json.Unmarshal(body, &list); err != nil || list.Total != 2 {
		return fmt.Errorf("list todos: want total=2, got: %s", body)
	}

	var stats struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
	}
	body, err = sc.do(ctx, http.MethodGet, "/todos/stats/count", nil, http.StatusOK)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if err := json.Unmarshal(body, &stats); err != nil || stats.Total != 2 || stats.Completed != 2 {
		return fmt.Errorf("stats: unexpected payload: %s", body)
	}

	// Owner scoping: a fresh user must not see the first user's todos.
	other := &smokeClient{base: sc.base, client: sc.client, verbose: sc.verbose}
	otherEmail := "smoke-" + randomHex(6) + "@example.com"
	if _, err := other.do(ctx, http.MethodPost, "/auth/register", map[string]any{
		"full_name": "Smoke Other",
		"email":     otherEmail,
		"password":  pass,
	}, http.StatusCreated); err != nil {
		return fmt.Errorf("register other: %w", err)
	}
	body, err = other.do(ctx, http.MethodPost, "/auth/login", map[string]any{
		"email":    otherEmail,
		"password": pass,
	}, http.StatusOK)
	if err != nil {
		return fmt.Errorf("login other: %w", err)
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("login other: bad payload: %s", body)
	}
	other.token = tok.AccessToken

	if _, err := other.do(ctx, http.MethodGet, "/todos/"+created.ID, nil, http.StatusNotFound); err != nil {
		return fmt.Errorf("cross-owner read should 404: %w", err)
	}

	if _, err := sc.do(ctx, http.MethodDelete, "/todos/"+created.ID, nil, http.StatusNoContent); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if _, err := sc.do(ctx, http.MethodGet, "/todos/"+created.ID, nil, http.StatusNotFound); err != nil {
		return fmt.Errorf("deleted todo should 404: %w", err)
	}

	return nil
}

func (sc *smokeClient) do(ctx context.Context, method, path string, payload any, wantStatus int) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, sc.base+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sc.token != "" {
		req.Header.Set("Authorization", "Bearer "+sc.token)
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if sc.verbose {
		fmt.Printf("%s %s -> %d %s\n", method, path, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if resp.StatusCode != wantStatus {
		return raw, fmt.Errorf("%s %s: status %d, want %d (%s)", method, path, resp.StatusCode, wantStatus, bytes.TrimSpace(raw))
	}
	return raw, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		fatalf("rand: %v", err)
	}
	return hex.EncodeToString(b)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
