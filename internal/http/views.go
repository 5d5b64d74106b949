package httpapp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"
)

// postView is the wire shape of a post: the author is embedded when it can
// be resolved, nil otherwise. Listing never fails on a dangling author.
type postView struct {
	model.Post
	Author     *model.User `json:"author"`
	LikesCount int         `json:"likes_count"`
}

type commentView struct {
	model.Comment
	Author     *model.User `json:"author"`
	Post       *model.Post `json:"post"`
	LikesCount int         `json:"likes_count"`
}

func (s *Server) postView(ctx context.Context, post model.Post) postView {
	return postView{
		Post:       post,
		Author:     s.resolveUser(ctx, post.AuthorID),
		LikesCount: len(post.LikeIDs),
	}
}

func (s *Server) postViews(ctx context.Context, posts []model.Post) []postView {
	views := make([]postView, len(posts))
	for i, post := range posts {
		views[i] = s.postView(ctx, post)
	}
	return views
}

func (s *Server) commentView(ctx context.Context, comment model.Comment) commentView {
	return commentView{
		Comment:    comment,
		Author:     s.resolveUser(ctx, comment.AuthorID),
		Post:       s.resolvePost(ctx, comment.PostID),
		LikesCount: len(comment.LikeIDs),
	}
}

func (s *Server) commentViews(ctx context.Context, comments []model.Comment) []commentView {
	views := make([]commentView, len(comments))
	for i, comment := range comments {
		views[i] = s.commentView(ctx, comment)
	}
	return views
}

func (s *Server) resolveUser(ctx context.Context, id string) *model.User {
	if id == "" {
		return nil
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil
	}
	return &user
}

func (s *Server) resolvePost(ctx context.Context, id string) *model.Post {
	if id == "" {
		return nil
	}
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil
	}
	return &post
}

func parsePageArgs(query url.Values) (pagination.Args, error) {
	skip, err := requiredNonNegative(query, "skip")
	if err != nil {
		return pagination.Args{}, err
	}
	take, err := requiredNonNegative(query, "take")
	if err != nil {
		return pagination.Args{}, err
	}
	return pagination.Args{Skip: skip, Take: take}, nil
}

func requiredNonNegative(query url.Values, key string) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func queryString(query url.Values, key string) *string {
	if !query.Has(key) {
		return nil
	}
	v := query.Get(key)
	return &v
}

func sortDirection(query url.Values, field string) (*pagination.Direction, error) {
	raw := query.Get("sort." + field)
	switch raw {
	case "":
		return nil, nil
	case "asc":
		return pagination.Asc(), nil
	case "desc":
		return pagination.Desc(), nil
	default:
		return nil, fmt.Errorf("sort.%s must be asc or desc", field)
	}
}

func parseUserQuery(r *http.Request) (pagination.Args, *store.UserFilter, *store.UserSort, error) {
	query := r.URL.Query()
	args, err := parsePageArgs(query)
	if err != nil {
		return pagination.Args{}, nil, nil, err
	}
	filter := &store.UserFilter{
		Username:  queryString(query, "username"),
		FirstName: queryString(query, "first_name"),
		LastName:  queryString(query, "last_name"),
	}
	sort := &store.UserSort{}
	for field, dest := range map[string]**pagination.Direction{
		"created_at": &sort.CreatedAt,
		"username":   &sort.Username,
		"first_name": &sort.FirstName,
		"last_name":  &sort.LastName,
	} {
		dir, err := sortDirection(query, field)
		if err != nil {
			return pagination.Args{}, nil, nil, err
		}
		*dest = dir
	}
	return args, filter, sort, nil
}

func parsePostQuery(r *http.Request) (pagination.Args, *store.PostFilter, *store.PostSort, error) {
	query := r.URL.Query()
	args, err := parsePageArgs(query)
	if err != nil {
		return pagination.Args{}, nil, nil, err
	}
	filter := &store.PostFilter{
		Title:          queryString(query, "title"),
		AuthorID:       queryString(query, "author_id"),
		AuthorUsername: queryString(query, "author_username"),
	}
	sort := &store.PostSort{}
	for field, dest := range map[string]**pagination.Direction{
		"created_at": &sort.CreatedAt,
		"title":      &sort.Title,
	} {
		dir, err := sortDirection(query, field)
		if err != nil {
			return pagination.Args{}, nil, nil, err
		}
		*dest = dir
	}
	return args, filter, sort, nil
}

func parseCommentQuery(r *http.Request) (pagination.Args, *store.CommentFilter, *store.CommentSort, error) {
	query := r.URL.Query()
	args, err := parsePageArgs(query)
	if err != nil {
		return pagination.Args{}, nil, nil, err
	}
	filter := &store.CommentFilter{
		Text:     queryString(query, "text"),
		AuthorID: queryString(query, "author_id"),
		PostID:   queryString(query, "post_id"),
	}
	sort := &store.CommentSort{}
	dir, err := sortDirection(query, "created_at")
	if err != nil {
		return pagination.Args{}, nil, nil, err
	}
	sort.CreatedAt = dir
	return args, filter, sort, nil
}
