package httpapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/feedline-io/feedline/internal/auth"
	"github.com/feedline-io/feedline/internal/config"
	"github.com/feedline-io/feedline/internal/store/sqlite"

	"github.com/rs/zerolog"
)

type allowAllLimiter struct{}

func (a allowAllLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	return true, 0
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.Open(fmt.Sprintf("file:http_%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{RateLimits: config.RateLimits{PostPerMinute: 100, CommentPerMinute: 100, LikePerMinute: 100}}
	authSvc := auth.NewService(st, []byte("test-secret"), time.Hour)
	return NewServer(st, authSvc, allowAllLimiter{}, cfg, zerolog.Nop())
}

func doJSON(t *testing.T, server *Server, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)

	var payload map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &payload)
	return resp, payload
}

func registerUser(t *testing.T, server *Server, username string) (token, id string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":"%s@example.com","username":"%s","password":"password123"}`, username, username)
	resp, payload := doJSON(t, server, http.MethodPost, "/api/users", "", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("register %s: %d: %s", username, resp.Code, resp.Body.String())
	}
	user := payload["user"].(map[string]any)
	return payload["access_token"].(string), user["id"].(string)
}

func TestRegisterLoginMe(t *testing.T) {
	server := newTestServer(t)
	_, id := registerUser(t, server, "ada")

	resp, payload := doJSON(t, server, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"password123"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: %d: %s", resp.Code, resp.Body.String())
	}
	token := payload["access_token"].(string)

	resp, payload = doJSON(t, server, http.MethodGet, "/api/me", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("me: %d", resp.Code)
	}
	if payload["id"] != id {
		t.Fatalf("me id = %v, want %s", payload["id"], id)
	}

	resp, _ = doJSON(t, server, http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"wrong-password"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", resp.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	server := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"bad email", `{"email":"not-an-email","username":"ada","password":"password123"}`},
		{"short username", `{"email":"a@example.com","username":"ab","password":"password123"}`},
		{"short password", `{"email":"a@example.com","username":"ada","password":"short"}`},
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, server, http.MethodPost, "/api/users", "", tc.body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", tc.name, resp.Code)
		}
	}

	registerUser(t, server, "ada")
	resp, _ := doJSON(t, server, http.MethodPost, "/api/users", "", `{"email":"ada@example.com","username":"ada2","password":"password123"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate email: got %d, want 409", resp.Code)
	}
}

func TestMeRequiresToken(t *testing.T) {
	server := newTestServer(t)
	resp, _ := doJSON(t, server, http.MethodGet, "/api/me", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", resp.Code)
	}
	resp, _ = doJSON(t, server, http.MethodGet, "/api/me", "garbage-token", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", resp.Code)
	}
}

func TestUserEmailUpdate(t *testing.T) {
	server := newTestServer(t)
	token, _ := registerUser(t, server, "ada")
	registerUser(t, server, "grace")

	resp, payload := doJSON(t, server, http.MethodPatch, "/api/users", token,
		`{"email":"ada.lovelace@example.com"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("patch email: %d: %s", resp.Code, resp.Body.String())
	}
	if payload["email"] != "ada.lovelace@example.com" {
		t.Fatalf("email not updated: %v", payload["email"])
	}
	if payload["username"] != "ada" {
		t.Fatalf("untouched field changed: %v", payload["username"])
	}

	resp, _ = doJSON(t, server, http.MethodPatch, "/api/users", token,
		`{"email":"not-an-email"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: %d", resp.Code)
	}

	// Taking another account's email must fail the update.
	resp, _ = doJSON(t, server, http.MethodPatch, "/api/users", token,
		`{"email":"grace@example.com"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d", resp.Code)
	}

	// The new address is what login knows.
	resp, _ = doJSON(t, server, http.MethodPost, "/api/auth/login", "",
		`{"email":"ada.lovelace@example.com","password":"password123"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login with new email: %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPostCRUD(t *testing.T) {
	server := newTestServer(t)
	token, id := registerUser(t, server, "ada")

	resp, payload := doJSON(t, server, http.MethodPost, "/api/posts", token, `{"title":"Hello World","description":"first post"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("create: %d: %s", resp.Code, resp.Body.String())
	}
	postID := payload["id"].(string)
	author, ok := payload["author"].(map[string]any)
	if !ok || author["id"] != id {
		t.Fatalf("embedded author = %v", payload["author"])
	}
	if payload["likes_count"].(float64) != 0 {
		t.Fatalf("likes_count = %v", payload["likes_count"])
	}

	resp, payload = doJSON(t, server, http.MethodPatch, "/api/posts/"+postID, token, `{"title":"Hello Again"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: %d: %s", resp.Code, resp.Body.String())
	}
	if payload["title"] != "Hello Again" || payload["description"] != "first post" {
		t.Fatalf("partial update: title=%v description=%v", payload["title"], payload["description"])
	}

	resp, payload = doJSON(t, server, http.MethodDelete, "/api/posts/"+postID, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: %d", resp.Code)
	}
	if payload["id"] != postID {
		t.Fatalf("delete result id = %v", payload["id"])
	}

	// Deleting again reports nothing deleted rather than an error.
	resp, payload = doJSON(t, server, http.MethodDelete, "/api/posts/"+postID, token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("second delete: %d", resp.Code)
	}
	if payload["id"] != nil {
		t.Fatalf("second delete id = %v, want null", payload["id"])
	}
}

func TestPostOwnership(t *testing.T) {
	server := newTestServer(t)
	ownerToken, _ := registerUser(t, server, "owner")
	strangerToken, _ := registerUser(t, server, "stranger")

	_, payload := doJSON(t, server, http.MethodPost, "/api/posts", ownerToken, `{"title":"Mine"}`)
	postID := payload["id"].(string)

	resp, _ := doJSON(t, server, http.MethodPatch, "/api/posts/"+postID, strangerToken, `{"title":"Hijacked"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("stranger update: %d, want 403", resp.Code)
	}
	resp, _ = doJSON(t, server, http.MethodDelete, "/api/posts/"+postID, strangerToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("stranger delete: %d, want 403", resp.Code)
	}
}

func TestPostLikes(t *testing.T) {
	server := newTestServer(t)
	ownerToken, _ := registerUser(t, server, "owner")
	likerToken, likerID := registerUser(t, server, "liker")

	_, payload := doJSON(t, server, http.MethodPost, "/api/posts", ownerToken, `{"title":"Likeable"}`)
	postID := payload["id"].(string)

	resp, payload := doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/like", likerToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("like: %d", resp.Code)
	}
	if payload["likes_count"].(float64) != 1 {
		t.Fatalf("likes_count = %v", payload["likes_count"])
	}
	likeIDs := payload["like_ids"].([]any)
	if len(likeIDs) != 1 || likeIDs[0] != likerID {
		t.Fatalf("like_ids = %v", likeIDs)
	}

	// Repeat like does not grow the set.
	_, payload = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/like", likerToken, "")
	if payload["likes_count"].(float64) != 1 {
		t.Fatalf("repeat like count = %v", payload["likes_count"])
	}

	resp, payload = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/unlike", likerToken, "")
	if resp.Code != http.StatusOK || payload["likes_count"].(float64) != 0 {
		t.Fatalf("unlike: %d count=%v", resp.Code, payload["likes_count"])
	}

	// Idempotent unlike.
	resp, payload = doJSON(t, server, http.MethodPost, "/api/posts/"+postID+"/unlike", likerToken, "")
	if resp.Code != http.StatusOK || payload["likes_count"].(float64) != 0 {
		t.Fatalf("second unlike: %d count=%v", resp.Code, payload["likes_count"])
	}

	resp, _ = doJSON(t, server, http.MethodPost, "/api/posts/missing/like", likerToken, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("like missing post: %d", resp.Code)
	}
}

func TestPostListPagination(t *testing.T) {
	server := newTestServer(t)
	token, authorID := registerUser(t, server, "ada")
	for i := 0; i < 5; i++ {
		doJSON(t, server, http.MethodPost, "/api/posts", token, fmt.Sprintf(`{"title":"Post number %d"}`, i))
	}

	resp, payload := doJSON(t, server, http.MethodGet, "/api/posts?skip=3&take=10", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list: %d", resp.Code)
	}
	nodes := payload["nodes"].([]any)
	if len(nodes) != 2 || payload["total_count"].(float64) != 5 {
		t.Fatalf("skip page: %d nodes, total %v", len(nodes), payload["total_count"])
	}

	// take=0 still reports the full count.
	_, payload = doJSON(t, server, http.MethodGet, "/api/posts?skip=0&take=0", "", "")
	if len(payload["nodes"].([]any)) != 0 || payload["total_count"].(float64) != 5 {
		t.Fatalf("take=0: %v", payload)
	}

	// Scatter filter on title.
	_, payload = doJSON(t, server, http.MethodGet, "/api/posts?skip=0&take=10&title=pn3", "", "")
	if payload["total_count"].(float64) != 1 {
		t.Fatalf("scatter filter total = %v", payload["total_count"])
	}

	_, payload = doJSON(t, server, http.MethodGet, "/api/posts?skip=0&take=10&author_id="+authorID, "", "")
	if payload["total_count"].(float64) != 5 {
		t.Fatalf("author filter total = %v", payload["total_count"])
	}

	resp, _ = doJSON(t, server, http.MethodGet, "/api/posts?take=10", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing skip: %d, want 400", resp.Code)
	}
	resp, _ = doJSON(t, server, http.MethodGet, "/api/posts?skip=-1&take=10", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("negative skip: %d, want 400", resp.Code)
	}
	resp, _ = doJSON(t, server, http.MethodGet, "/api/posts?skip=0&take=10&sort.title=sideways", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: %d, want 400", resp.Code)
	}
}

func TestCommentFlow(t *testing.T) {
	server := newTestServer(t)
	token, _ := registerUser(t, server, "ada")

	_, payload := doJSON(t, server, http.MethodPost, "/api/posts", token, `{"title":"Discussable"}`)
	postID := payload["id"].(string)

	resp, payload := doJSON(t, server, http.MethodPost, "/api/comments", token, fmt.Sprintf(`{"post_id":"%s","text":"first!"}`, postID))
	if resp.Code != http.StatusOK {
		t.Fatalf("create comment: %d: %s", resp.Code, resp.Body.String())
	}
	commentID := payload["id"].(string)
	post, ok := payload["post"].(map[string]any)
	if !ok || post["id"] != postID {
		t.Fatalf("embedded post = %v", payload["post"])
	}

	resp, _ = doJSON(t, server, http.MethodPost, "/api/comments", token, `{"post_id":"missing","text":"orphan"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("comment on missing post: %d", resp.Code)
	}

	resp, payload = doJSON(t, server, http.MethodGet, "/api/posts/"+postID+"/comments?skip=0&take=10", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("nested list: %d", resp.Code)
	}
	if payload["total_count"].(float64) != 1 {
		t.Fatalf("nested total = %v", payload["total_count"])
	}

	resp, _ = doJSON(t, server, http.MethodGet, "/api/posts/missing/comments?skip=0&take=10", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("nested list on missing post: %d", resp.Code)
	}

	resp, payload = doJSON(t, server, http.MethodPost, "/api/comments/"+commentID+"/like", token, "")
	if resp.Code != http.StatusOK || payload["likes_count"].(float64) != 1 {
		t.Fatalf("like comment: %d count=%v", resp.Code, payload["likes_count"])
	}

	resp, payload = doJSON(t, server, http.MethodDelete, "/api/comments/"+commentID, token, "")
	if resp.Code != http.StatusOK || payload["id"] != commentID {
		t.Fatalf("delete comment: %d %v", resp.Code, payload["id"])
	}
}

func TestPostViewEmbedsAuthor(t *testing.T) {
	server := newTestServer(t)
	token, authorID := registerUser(t, server, "ghost")

	_, payload := doJSON(t, server, http.MethodPost, "/api/posts", token, `{"title":"Authored Post"}`)
	postID := payload["id"].(string)

	resp, payload := doJSON(t, server, http.MethodGet, "/api/posts/"+postID, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get: %d", resp.Code)
	}
	author, ok := payload["author"].(map[string]any)
	if !ok || author["id"] != authorID {
		t.Fatalf("author = %v", payload["author"])
	}
	if _, leaked := author["password_hash"]; leaked {
		t.Fatalf("password hash leaked in author view")
	}
}

func TestStatsAndVersion(t *testing.T) {
	server := newTestServer(t)
	token, _ := registerUser(t, server, "ada")
	doJSON(t, server, http.MethodPost, "/api/posts", token, `{"title":"Counted"}`)

	resp, payload := doJSON(t, server, http.MethodGet, "/api/stats", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("stats: %d", resp.Code)
	}
	if payload["users"].(float64) != 1 || payload["posts"].(float64) != 1 {
		t.Fatalf("stats = %v", payload)
	}

	resp, _ = doJSON(t, server, http.MethodGet, "/api/version", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("version: %d", resp.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t)
	resp, _ := doJSON(t, server, http.MethodGet, "/api/nonsense", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", resp.Code)
	}
}
