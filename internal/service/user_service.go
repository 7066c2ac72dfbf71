package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"blog-api/internal/model"
	"blog-api/pkg/apierror"
)

// UserStore is the identity store. Create must enforce uniqueness of email
// and nickname and report violations as UNIQUENESS_CONFLICT.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.Nickname = strings.TrimSpace(u.Nickname)
	u.Email = strings.TrimSpace(u.Email)

	if u.Nickname == "" || u.Email == "" {
		return model.User{}, apierror.BadRequest(apierror.CodeBadRequest, "nickname and email are required", "")
	}
	if utf8.RuneCountInString(u.Nickname) > model.NicknameMaxLength {
		return model.User{}, apierror.BadRequest(apierror.CodeBadRequest, "nickname must be at most 20 characters", "nickname")
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Role != model.RoleUser && u.Role != model.RoleAdmin {
		return model.User{}, apierror.BadRequest(apierror.CodeBadRequest, "invalid role", string(u.Role))
	}

	return s.store.Create(ctx, u)
}

// GetUserByEmail returns model.ErrUserNotFound when the email is unknown.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.store.FindByEmail(ctx, strings.TrimSpace(email))
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return s.store.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.List(ctx)
}

func (s *UserService) RequireUser(ctx context.Context, id int64) (model.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, apierror.New(apierror.CodeNotFound, "user not found", "", http.StatusNotFound)
		}
		return model.User{}, err
	}
	return user, nil
}
