package feed

import (
	"context"
	"errors"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"
)

type PostService struct {
	store store.Store
}

func NewPostService(st store.Store) *PostService {
	return &PostService{store: st}
}

type PostCreateInput struct {
	Title       string
	Description string
}

func (s *PostService) Create(ctx context.Context, authorID string, in PostCreateInput) (model.Post, error) {
	if _, err := s.store.GetUser(ctx, authorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, notFound("author")
		}
		return model.Post{}, err
	}
	post := model.Post{
		Title:       in.Title,
		Description: in.Description,
		AuthorID:    authorID,
	}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id, callerID string, patch store.PostPatch) (model.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	if post.AuthorID != callerID {
		return model.Post{}, ErrForbidden
	}
	return s.store.UpdatePost(ctx, id, patch)
}

// Delete is tolerant: an absent post yields a nil id, not an error. The
// ownership check only applies when the post still exists.
func (s *PostService) Delete(ctx context.Context, id, callerID string) (DeleteResult, error) {
	post, err := s.store.GetPost(ctx, id)
	if err == nil && post.AuthorID != callerID {
		return DeleteResult{}, ErrForbidden
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return DeleteResult{}, err
	}
	affected, err := s.store.DeletePost(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	return deleteResult(id, affected), nil
}

func (s *PostService) Like(ctx context.Context, postID, userID string) (model.Post, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, notFound("post")
		}
		return model.Post{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, notFound("user")
		}
		return model.Post{}, err
	}
	if err := s.store.AddPostLike(ctx, postID, userID); err != nil {
		return model.Post{}, err
	}
	return s.store.GetPost(ctx, postID)
}

// Unlike removes the caller from the likers set. Removing a non-liker is
// a no-op, so the call is idempotent.
func (s *PostService) Unlike(ctx context.Context, postID, userID string) (model.Post, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Post{}, notFound("post")
		}
		return model.Post{}, err
	}
	if err := s.store.RemovePostLike(ctx, postID, userID); err != nil {
		return model.Post{}, err
	}
	return s.store.GetPost(ctx, postID)
}

func (s *PostService) GetByID(ctx context.Context, id string) (model.Post, error) {
	return s.store.GetPost(ctx, id)
}

func (s *PostService) Pagination(ctx context.Context, args pagination.Args, filter *store.PostFilter, sort *store.PostSort) (pagination.Page[model.Post], error) {
	return s.store.ListPosts(ctx, args, filter, sort)
}
