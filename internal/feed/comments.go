package feed

import (
	"context"
	"errors"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"
)

type CommentService struct {
	store store.Store
}

func NewCommentService(st store.Store) *CommentService {
	return &CommentService{store: st}
}

type CommentCreateInput struct {
	Text string
}

// Create requires both the parent post and the author to resolve.
func (s *CommentService) Create(ctx context.Context, postID, authorID string, in CommentCreateInput) (model.Comment, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Comment{}, notFound("post")
		}
		return model.Comment{}, err
	}
	if _, err := s.store.GetUser(ctx, authorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Comment{}, notFound("author")
		}
		return model.Comment{}, err
	}
	comment := model.Comment{
		Text:     in.Text,
		PostID:   postID,
		AuthorID: authorID,
	}
	if err := s.store.CreateComment(ctx, &comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, id, callerID string, patch store.CommentPatch) (model.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	if comment.AuthorID != callerID {
		return model.Comment{}, ErrForbidden
	}
	return s.store.UpdateComment(ctx, id, patch)
}

func (s *CommentService) Delete(ctx context.Context, id, callerID string) (DeleteResult, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err == nil && comment.AuthorID != callerID {
		return DeleteResult{}, ErrForbidden
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return DeleteResult{}, err
	}
	affected, err := s.store.DeleteComment(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	return deleteResult(id, affected), nil
}

func (s *CommentService) Like(ctx context.Context, commentID, userID string) (model.Comment, error) {
	if _, err := s.store.GetComment(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Comment{}, notFound("comment")
		}
		return model.Comment{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Comment{}, notFound("user")
		}
		return model.Comment{}, err
	}
	if err := s.store.AddCommentLike(ctx, commentID, userID); err != nil {
		return model.Comment{}, err
	}
	return s.store.GetComment(ctx, commentID)
}

func (s *CommentService) Unlike(ctx context.Context, commentID, userID string) (model.Comment, error) {
	if _, err := s.store.GetComment(ctx, commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Comment{}, notFound("comment")
		}
		return model.Comment{}, err
	}
	if err := s.store.RemoveCommentLike(ctx, commentID, userID); err != nil {
		return model.Comment{}, err
	}
	return s.store.GetComment(ctx, commentID)
}

func (s *CommentService) GetByID(ctx context.Context, id string) (model.Comment, error) {
	return s.store.GetComment(ctx, id)
}

func (s *CommentService) Pagination(ctx context.Context, args pagination.Args, filter *store.CommentFilter, sort *store.CommentSort) (pagination.Page[model.Comment], error) {
	return s.store.ListComments(ctx, args, filter, sort)
}
