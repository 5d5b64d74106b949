package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	st, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createTestUser(t *testing.T, st *Store, username string) model.User {
	t.Helper()
	user := model.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
	}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)

	user := model.User{
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "hash",
		FirstName:    "Ada",
	}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps set")
	}

	got, err := st.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != user.Email || got.FirstName != "Ada" {
		t.Fatalf("unexpected user: %+v", got)
	}

	byEmail, err := st.GetUserByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("expected same user")
	}

	bio := "mathematician"
	updated, err := st.UpdateUser(context.Background(), user.ID, store.UserPatch{Bio: &bio})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Bio != bio {
		t.Fatalf("expected bio updated")
	}
	if updated.FirstName != "Ada" {
		t.Fatalf("partial update clobbered first name")
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updated_at not bumped")
	}

	affected, err := st.DeleteUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row deleted, got %d", affected)
	}
	affected, err = st.DeleteUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("second delete should not error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows on second delete, got %d", affected)
	}
}

func TestUserUniqueConstraints(t *testing.T) {
	st := newTestStore(t)

	createTestUser(t, st, "taken")

	dup := model.User{Email: "taken@example.com", Username: "other", PasswordHash: "x"}
	if err := st.CreateUser(context.Background(), &dup); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	dup = model.User{Email: "other@example.com", Username: "taken", PasswordHash: "x"}
	if err := st.CreateUser(context.Background(), &dup); !errors.Is(err, store.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	other := createTestUser(t, st, "someone")
	email := "taken@example.com"
	if _, err := st.UpdateUser(context.Background(), other.ID, store.UserPatch{Email: &email}); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail on update, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.GetUser(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersScatterFilter(t *testing.T) {
	st := newTestStore(t)
	createTestUser(t, st, "TestUsername")
	createTestUser(t, st, "Other")

	username := "tUn"
	page, err := st.ListUsers(context.Background(), pagination.Args{Skip: 0, Take: 10}, &store.UserFilter{Username: &username}, nil)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if page.TotalCount != 1 || len(page.Nodes) != 1 {
		t.Fatalf("expected exactly one match, got %d/%d", len(page.Nodes), page.TotalCount)
	}
	if page.Nodes[0].Username != "TestUsername" {
		t.Fatalf("scatter match returned %q", page.Nodes[0].Username)
	}
}

func TestListUsersSkipTakeAndTotal(t *testing.T) {
	st := newTestStore(t)
	for i := 0; i < 5; i++ {
		createTestUser(t, st, fmt.Sprintf("user%d", i))
	}

	page, err := st.ListUsers(context.Background(), pagination.Args{Skip: 3, Take: 10}, nil, nil)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(page.Nodes) != 2 {
		t.Fatalf("expected 2 nodes after skip, got %d", len(page.Nodes))
	}
	if page.TotalCount != 5 {
		t.Fatalf("total count must ignore skip/take, got %d", page.TotalCount)
	}

	page, err = st.ListUsers(context.Background(), pagination.Args{Skip: 0, Take: 0}, nil, nil)
	if err != nil {
		t.Fatalf("list users take=0: %v", err)
	}
	if len(page.Nodes) != 0 || page.TotalCount != 5 {
		t.Fatalf("take=0 should return no nodes but full count, got %d/%d", len(page.Nodes), page.TotalCount)
	}
}

func TestListUsersCompoundSort(t *testing.T) {
	st := newTestStore(t)
	// Shared first name: the second sort field breaks the tie.
	for _, names := range [][2]string{{"charlie", "Young"}, {"alice", "Adams"}, {"bob", "Marsh"}} {
		user := model.User{
			Email:        names[0] + "@example.com",
			Username:     names[0],
			PasswordHash: "x",
			FirstName:    "Sam",
			LastName:     names[1],
		}
		if err := st.CreateUser(context.Background(), &user); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	sort := &store.UserSort{FirstName: pagination.Asc(), LastName: pagination.Desc()}
	page, err := st.ListUsers(context.Background(), pagination.Args{Skip: 0, Take: 10}, nil, sort)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	got := make([]string, len(page.Nodes))
	for i, u := range page.Nodes {
		got[i] = u.Username
	}
	want := []string{"charlie", "bob", "alice"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("compound sort order = %v, want %v", got, want)
		}
	}
}

func TestSiteStats(t *testing.T) {
	st := newTestStore(t)
	user := createTestUser(t, st, "author")
	post := model.Post{Title: "Hello", AuthorID: user.ID}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	comment := model.Comment{Text: "hi", PostID: post.ID, AuthorID: user.ID}
	if err := st.CreateComment(context.Background(), &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	stats, err := st.GetSiteStats(context.Background())
	if err != nil {
		t.Fatalf("site stats: %v", err)
	}
	if stats.Users != 1 || stats.Posts != 1 || stats.Comments != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
