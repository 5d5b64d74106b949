package store

import (
	"context"
	"errors"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// UserFilter fields are nil for "no constraint". Text fields use the
// scatter-match rule, id fields compare exactly.
type UserFilter struct {
	Username  *string
	FirstName *string
	LastName  *string
}

// UserSort fields apply as a compound ORDER BY in declaration order; nil
// fields impose no ordering constraint.
type UserSort struct {
	CreatedAt *pagination.Direction
	Username  *pagination.Direction
	FirstName *pagination.Direction
	LastName  *pagination.Direction
}

type PostFilter struct {
	Title          *string
	AuthorID       *string
	AuthorUsername *string
}

type PostSort struct {
	CreatedAt *pagination.Direction
	Title     *pagination.Direction
}

type CommentFilter struct {
	Text     *string
	AuthorID *string
	PostID   *string
}

type CommentSort struct {
	CreatedAt *pagination.Direction
}

// UserPatch et al carry partial updates: nil means "leave unchanged".
type UserPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Bio          *string
}

type PostPatch struct {
	Title       *string
	Description *string
}

type CommentPatch struct {
	Text *string
}

type Store interface {
	UserStore
	PostStore
	CommentStore
	GetSiteStats(ctx context.Context) (model.SiteStats, error)
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (model.User, error)
	// DeleteUser reports how many rows went away; deleting an absent id is
	// not an error.
	DeleteUser(ctx context.Context, id string) (int64, error)
	ListUsers(ctx context.Context, args pagination.Args, filter *UserFilter, sort *UserSort) (pagination.Page[model.User], error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (model.Post, error)
	DeletePost(ctx context.Context, id string) (int64, error)
	ListPosts(ctx context.Context, args pagination.Args, filter *PostFilter, sort *PostSort) (pagination.Page[model.Post], error)
	// AddPostLike is idempotent by membership: a user already present is
	// not re-added (unique index on the pair).
	AddPostLike(ctx context.Context, postID, userID string) error
	RemovePostLike(ctx context.Context, postID, userID string) error
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (model.Comment, error)
	UpdateComment(ctx context.Context, id string, patch CommentPatch) (model.Comment, error)
	DeleteComment(ctx context.Context, id string) (int64, error)
	ListComments(ctx context.Context, args pagination.Args, filter *CommentFilter, sort *CommentSort) (pagination.Page[model.Comment], error)
	AddCommentLike(ctx context.Context, commentID, userID string) error
	RemoveCommentLike(ctx context.Context, commentID, userID string) error
}
