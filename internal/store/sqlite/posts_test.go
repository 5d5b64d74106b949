package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"
)

func createTestPost(t *testing.T, st *Store, authorID, title string) model.Post {
	t.Helper()
	post := model.Post{Title: title, AuthorID: authorID}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return post
}

func TestPostLifecycle(t *testing.T) {
	st := newTestStore(t)
	author := createTestUser(t, st, "author")

	post := model.Post{Title: "Hello", Description: "First post", AuthorID: author.ID}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != "Hello" || got.AuthorID != author.ID {
		t.Fatalf("unexpected post: %+v", got)
	}

	title := "Hello again"
	updated, err := st.UpdatePost(context.Background(), post.ID, store.PostPatch{Title: &title})
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Title != title || updated.Description != "First post" {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	affected, err := st.DeletePost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row, got %d", affected)
	}
}

func TestPostLikesDeduplicated(t *testing.T) {
	st := newTestStore(t)
	author := createTestUser(t, st, "author")
	liker := createTestUser(t, st, "liker")
	post := createTestPost(t, st, author.ID, "Likeable")

	if err := st.AddPostLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	// Second like is absorbed by the unique index.
	if err := st.AddPostLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("repeat like should be a no-op: %v", err)
	}

	got, err := st.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.LikeIDs) != 1 || got.LikeIDs[0] != liker.ID {
		t.Fatalf("expected one liker, got %v", got.LikeIDs)
	}

	if err := st.RemovePostLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("remove like: %v", err)
	}
	if err := st.RemovePostLike(context.Background(), post.ID, liker.ID); err != nil {
		t.Fatalf("removing a non-liker should be a no-op: %v", err)
	}
	got, _ = st.GetPost(context.Background(), post.ID)
	if len(got.LikeIDs) != 0 {
		t.Fatalf("expected no likers, got %v", got.LikeIDs)
	}
}

func TestDeletePostCascades(t *testing.T) {
	st := newTestStore(t)
	author := createTestUser(t, st, "author")
	post := createTestPost(t, st, author.ID, "Doomed")

	comment := model.Comment{Text: "so long", PostID: post.ID, AuthorID: author.ID}
	if err := st.CreateComment(context.Background(), &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := st.AddPostLike(context.Background(), post.ID, author.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}

	if _, err := st.DeletePost(context.Background(), post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, err := st.GetComment(context.Background(), comment.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected comment cascade-deleted, got %v", err)
	}
	likes, err := st.postLikeIDs(context.Background(), []string{post.ID})
	if err != nil {
		t.Fatalf("like ids: %v", err)
	}
	if len(likes[post.ID]) != 0 {
		t.Fatalf("expected like rows cleared")
	}
}

func TestDeleteCascadesOnFreshConnections(t *testing.T) {
	// A file-backed store survives connection churn; the in-memory test
	// databases vanish when their last connection closes.
	st, err := Open(filepath.Join(t.TempDir(), "cascade.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	// Zero idle connections forces every statement onto a freshly opened
	// pool connection, which must still have foreign_keys enabled.
	st.db.SetMaxIdleConns(0)

	author := createTestUser(t, st, "author")
	post := createTestPost(t, st, author.ID, "Doomed again")
	comment := model.Comment{Text: "fresh conn", PostID: post.ID, AuthorID: author.ID}
	if err := st.CreateComment(context.Background(), &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	if _, err := st.DeletePost(context.Background(), post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := st.GetComment(context.Background(), comment.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected comment cascade-deleted, got %v", err)
	}

	if _, err := st.DeleteUser(context.Background(), author.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	page, err := st.ListPosts(context.Background(), pagination.Args{Take: 10}, nil, nil)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if page.TotalCount != 0 {
		t.Fatalf("expected user's posts cascade-deleted, got %d", page.TotalCount)
	}
}

func TestListPostsCreatedAtDesc(t *testing.T) {
	st := newTestStore(t)
	author := createTestUser(t, st, "author")
	for _, title := range []string{"first", "second", "third"} {
		createTestPost(t, st, author.ID, title)
		time.Sleep(time.Millisecond)
	}

	sort := &store.PostSort{CreatedAt: pagination.Desc()}
	page, err := st.ListPosts(context.Background(), pagination.Args{Skip: 0, Take: 10}, nil, sort)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page.Nodes) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(page.Nodes))
	}
	want := []string{"third", "second", "first"}
	for i := range want {
		if page.Nodes[i].Title != want[i] {
			t.Fatalf("latest-first order broken at %d: got %q", i, page.Nodes[i].Title)
		}
	}
}

func TestListPostsAuthorFilters(t *testing.T) {
	st := newTestStore(t)
	writer := createTestUser(t, st, "TestUsername")
	other := createTestUser(t, st, "Other")
	createTestPost(t, st, writer.ID, "by writer")
	createTestPost(t, st, other.ID, "by other")

	page, err := st.ListPosts(context.Background(), pagination.Args{Skip: 0, Take: 10}, &store.PostFilter{AuthorID: &writer.ID}, nil)
	if err != nil {
		t.Fatalf("list by author id: %v", err)
	}
	if page.TotalCount != 1 || page.Nodes[0].Title != "by writer" {
		t.Fatalf("author id filter wrong: %+v", page)
	}

	username := "tUn"
	page, err = st.ListPosts(context.Background(), pagination.Args{Skip: 0, Take: 10}, &store.PostFilter{AuthorUsername: &username}, nil)
	if err != nil {
		t.Fatalf("list by author username: %v", err)
	}
	if page.TotalCount != 1 || page.Nodes[0].AuthorID != writer.ID {
		t.Fatalf("author username scatter filter wrong: %+v", page)
	}
}

func TestListPostsEmptyResult(t *testing.T) {
	st := newTestStore(t)
	title := "nothing matches"
	page, err := st.ListPosts(context.Background(), pagination.Args{Skip: 0, Take: 10}, &store.PostFilter{Title: &title}, nil)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if page.Nodes == nil {
		t.Fatalf("nodes must never be nil")
	}
	if len(page.Nodes) != 0 || page.TotalCount != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}
