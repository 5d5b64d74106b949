package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientNew(t *testing.T) {
	c := New("https://example.com")

	if c.BaseURL != "https://example.com" {
		t.Errorf("expected base URL 'https://example.com', got '%s'", c.BaseURL)
	}

	if c.HTTPClient == nil {
		t.Error("expected non-nil HTTP client")
	}

	if c.IsAuthenticated() {
		t.Error("expected new client to not be authenticated")
	}
}

func TestRegisterStoresToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] != "ada@example.com" {
			t.Fatalf("email = %q", req["email"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         map[string]string{"id": "u1", "username": "ada"},
			"access_token": "tok-123",
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	user, err := c.Register("ada@example.com", "ada", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user id = %q", user.ID)
	}
	if c.Token != "tok-123" || !c.IsAuthenticated() {
		t.Errorf("token = %q", c.Token)
	}
}

func TestRegisterConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "duplicate email"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	if _, err := c.Register("ada@example.com", "ada", "password123"); err != ErrAlreadyRegistered {
		t.Fatalf("err = %v, want ErrAlreadyRegistered", err)
	}
}

func TestAuthHeaderSent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "p1", "title": "Hello"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.Token = "tok-123"
	post, err := c.CreatePost("Hello", "")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID != "p1" {
		t.Errorf("post id = %q", post.ID)
	}
}
