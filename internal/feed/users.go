package feed

import (
	"context"

	"github.com/feedline-io/feedline/internal/model"
	"github.com/feedline-io/feedline/internal/pagination"
	"github.com/feedline-io/feedline/internal/store"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

type UserCreateInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// UserUpdateInput carries partial fields; nil leaves the field unchanged.
// A new password is re-hashed before it reaches the store.
type UserUpdateInput struct {
	Email     *string
	Username  *string
	Password  *string
	FirstName *string
	LastName  *string
	Bio       *string
}

func (s *UserService) Create(ctx context.Context, in UserCreateInput) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	user := model.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Update is self-scoped: the caller identity is the target, so no
// ownership check can fail here.
func (s *UserService) Update(ctx context.Context, callerID string, in UserUpdateInput) (model.User, error) {
	patch := store.UserPatch{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return model.User{}, err
		}
		hashed := string(hash)
		patch.PasswordHash = &hashed
	}
	return s.store.UpdateUser(ctx, callerID, patch)
}

func (s *UserService) Delete(ctx context.Context, callerID string) (DeleteResult, error) {
	affected, err := s.store.DeleteUser(ctx, callerID)
	if err != nil {
		return DeleteResult{}, err
	}
	return deleteResult(callerID, affected), nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (model.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func (s *UserService) Pagination(ctx context.Context, args pagination.Args, filter *store.UserFilter, sort *store.UserSort) (pagination.Page[model.User], error) {
	return s.store.ListUsers(ctx, args, filter, sort)
}
